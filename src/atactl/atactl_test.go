package main

import "bytes"
import "io/ioutil"
import "os"
import "path/filepath"
import "strings"
import "testing"

import "github.com/google/pprof/profile"
import "github.com/kylelemons/godebug/pretty"
import "golang.org/x/tools/txtar"

// runs one archive: "args" is the command line with $DIR naming the
// directory holding the other files, "stdout" the expected output and
// the optional "error" a substring of the expected error
func rungolden(t *testing.T, path string) {
	ar, err := txtar.ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	var args []string
	var want, wanterr string
	for _, f := range ar.Files {
		switch f.Name {
		case "args":
			args = strings.Fields(strings.ReplaceAll(string(f.Data), "$DIR", dir))
		case "stdout":
			want = string(f.Data)
		case "error":
			wanterr = strings.TrimSpace(string(f.Data))
		default:
			if err := ioutil.WriteFile(filepath.Join(dir, f.Name), f.Data, 0644); err != nil {
				t.Fatal(err)
			}
		}
	}

	root := mkroot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(ioutil.Discard)
	root.SetArgs(args)
	err = root.Execute()
	switch {
	case wanterr == "" && err != nil:
		t.Fatal(err)
	case wanterr != "" && (err == nil || !strings.Contains(err.Error(), wanterr)):
		t.Fatalf("got error %v, want %q", err, wanterr)
	}
	if diff := pretty.Compare(strings.Split(out.String(), "\n"),
		strings.Split(want, "\n")); diff != "" {
		t.Fatalf("output (-got +want):\n%s", diff)
	}
}

func TestGolden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no archives")
	}
	for _, f := range files {
		f := f
		t.Run(strings.TrimSuffix(filepath.Base(f), ".txtar"), func(t *testing.T) {
			rungolden(t, f)
		})
	}
}

const benchmachine = `
drives:
  "0:0":
    type: ata
    lba: true
    max28: 4096
  "1:0":
    type: ata
    lba: true
    max28: 4096
`

func writemachine(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "machine.yaml")
	if err := ioutil.WriteFile(p, []byte(benchmachine), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestBench(t *testing.T) {
	root := mkroot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(ioutil.Discard)
	root.SetArgs([]string{"bench", "ata1", "-j", "3", "--ops", "5",
		"--sectors", "4", "--sim", writemachine(t)})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "60 sectors in ") ||
		!strings.Contains(out.String(), "#Nread: 15") {
		t.Fatalf("output %q", out.String())
	}
}

func TestStatsProfile(t *testing.T) {
	pp := filepath.Join(t.TempDir(), "ide.pb.gz")
	root := mkroot()
	root.SetOut(ioutil.Discard)
	root.SetErr(ioutil.Discard)
	root.SetArgs([]string{"stats", "--pprof", pp, "--sim", writemachine(t)})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(pp)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	p, err := profile.Parse(f)
	if err != nil {
		t.Fatal(err)
	}
	var nsect int64
	for _, s := range p.Sample {
		if s.Location[0].Line[0].Function.Name == "ide 00:01.1.Nsectr" {
			nsect = s.Value[0]
		}
	}
	// 64 sectors from each of two disks
	if nsect != 128 {
		t.Fatalf("Nsectr %v", nsect)
	}
}

func TestNoDisk(t *testing.T) {
	root := mkroot()
	root.SetOut(ioutil.Discard)
	root.SetErr(ioutil.Discard)
	root.SetArgs([]string{"read", "ata7", "0", "1", "--sim", writemachine(t)})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "no disk") {
		t.Fatalf("got %v", err)
	}
}
