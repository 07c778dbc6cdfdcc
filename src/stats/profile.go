package stats

import "io"
import "time"

import "github.com/google/pprof/profile"

/// Group_t names one statistics struct for export.
type Group_t struct {
	Name string
	St   interface{}
}

/// Profile converts statistics groups into a pprof profile with one sample
/// per counter. Each sample carries a two frame stack, group then
/// counter, so that "go tool pprof -top" lists counters by name and the
/// graph views group them per controller.
func Profile(groups []Group_t) *profile.Profile {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "events", Unit: "count"}},
		PeriodType: &profile.ValueType{Type: "events", Unit: "count"},
		Period:     1,
		TimeNanos:  time.Now().UnixNano(),
	}
	funcs := make(map[string]*profile.Location)
	loc := func(name string) *profile.Location {
		if l, ok := funcs[name]; ok {
			return l
		}
		fn := &profile.Function{
			ID:         uint64(len(p.Function) + 1),
			Name:       name,
			SystemName: name,
		}
		p.Function = append(p.Function, fn)
		l := &profile.Location{
			ID:   uint64(len(p.Location) + 1),
			Line: []profile.Line{{Function: fn}},
		}
		p.Location = append(p.Location, l)
		funcs[name] = l
		return l
	}
	for _, g := range groups {
		gl := loc(g.Name)
		for _, f := range Fields(g.St) {
			if f.Cycle {
				continue
			}
			p.Sample = append(p.Sample, &profile.Sample{
				Location: []*profile.Location{loc(g.Name + "." + f.Name), gl},
				Value:    []int64{f.Val},
				Label:    map[string][]string{"group": {g.Name}},
			})
		}
	}
	return p
}

/// WriteProfile writes the gzip compressed profile of groups to w.
func WriteProfile(w io.Writer, groups []Group_t) error {
	p := Profile(groups)
	if err := p.CheckValid(); err != nil {
		return err
	}
	return p.Write(w)
}
