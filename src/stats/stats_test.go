package stats

import "bytes"
import "testing"
import "time"

import "github.com/google/pprof/profile"
import "github.com/kylelemons/godebug/pretty"

type st_t struct {
	Nread  Counter_t
	Nwrite Counter_t
	other  int
	Tspin  Cycles_t
}

func TestFields(t *testing.T) {
	st := &st_t{}
	st.Nread.Inc()
	st.Nread.Inc()
	st.Nwrite.Addn(5)
	st.Tspin.Add(3 * time.Microsecond)
	st.Tspin.Add(time.Microsecond)

	want := []Field_t{
		{Name: "Nread", Val: 2},
		{Name: "Nwrite", Val: 5},
		{Name: "Tspin", Cycle: true, Val: 4000},
	}
	if diff := pretty.Compare(Fields(st), want); diff != "" {
		t.Fatalf("fields (-got +want):\n%s", diff)
	}
	if diff := pretty.Compare(Fields(*st), want); diff != "" {
		t.Fatalf("fields by value (-got +want):\n%s", diff)
	}
	if got := Stats2String(st); got != "\n\t#Nread: 2\n\t#Nwrite: 5\n\t#Tspin: 4000\n" {
		t.Fatalf("Stats2String %q", got)
	}
}

func TestProfile(t *testing.T) {
	a, b := &st_t{}, &st_t{}
	a.Nread.Addn(3)
	b.Nwrite.Addn(7)

	var buf bytes.Buffer
	err := WriteProfile(&buf, []Group_t{{"ide0", a}, {"ide1", b}})
	if err != nil {
		t.Fatal(err)
	}
	p, err := profile.Parse(&buf)
	if err != nil {
		t.Fatal(err)
	}
	got := make(map[string]int64)
	for _, s := range p.Sample {
		got[s.Location[0].Line[0].Function.Name] = s.Value[0]
	}
	want := map[string]int64{
		"ide0.Nread":  3,
		"ide0.Nwrite": 0,
		"ide1.Nread":  0,
		"ide1.Nwrite": 7,
	}
	if diff := pretty.Compare(got, want); diff != "" {
		t.Fatalf("samples (-got +want):\n%s", diff)
	}
}
