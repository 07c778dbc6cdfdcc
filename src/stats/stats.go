package stats

import "reflect"
import "sync/atomic"
import "strconv"
import "time"

const Stats = true

/// Counter_t is a statistical counter.
type Counter_t int64

/// Cycles_t accumulates elapsed time in nanoseconds.
type Cycles_t int64

/// Inc increments the counter.
func (c *Counter_t) Inc() {
	if Stats {
		atomic.AddInt64((*int64)(c), 1)
	}
}

/// Addn adds n to the counter.
func (c *Counter_t) Addn(n int) {
	if Stats {
		atomic.AddInt64((*int64)(c), int64(n))
	}
}

/// Load returns the current value.
func (c *Counter_t) Load() int64 {
	return atomic.LoadInt64((*int64)(c))
}

/// Add adds d to the counter.
func (c *Cycles_t) Add(d time.Duration) {
	if Stats {
		atomic.AddInt64((*int64)(c), int64(d))
	}
}

/// Load returns the current value.
func (c *Cycles_t) Load() int64 {
	return atomic.LoadInt64((*int64)(c))
}

/// Field_t is one named counter of a statistics struct.
type Field_t struct {
	Name  string
	Cycle bool
	Val   int64
}

/// Fields returns the counters of st, which must be a struct or a pointer
/// to one, in declaration order.
func Fields(st interface{}) []Field_t {
	v := reflect.Indirect(reflect.ValueOf(st))
	var ret []Field_t
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		var cycle bool
		switch f.Type() {
		case reflect.TypeOf(Counter_t(0)):
		case reflect.TypeOf(Cycles_t(0)):
			cycle = true
		default:
			continue
		}
		var n int64
		if f.CanAddr() {
			n = atomic.LoadInt64((*int64)(f.Addr().UnsafePointer()))
		} else {
			n = f.Int()
		}
		ret = append(ret, Field_t{v.Type().Field(i).Name, cycle, n})
	}
	return ret
}

/// Stats2String converts a struct of counters to a printable string.
func Stats2String(st interface{}) string {
	if !Stats {
		return ""
	}
	s := ""
	for _, f := range Fields(st) {
		s += "\n\t#" + f.Name + ": " + strconv.FormatInt(f.Val, 10)
	}
	return s + "\n"
}
