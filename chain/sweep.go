package chain

import (
	"runtime"
	"sync"

	"github.com/golang/glog"
	"github.com/tinapiao/icgen"
)

// Job is one design of a sweep.
//
type Job struct {
	Name   string
	Params Params
}

// Outcome is the result of a Job. Exactly one of Result and Err is set.
//
type Outcome struct {
	Name   string
	Result *Result
	Err    error
}

// Sweep builds independent chains concurrently over a shared library.
//
// workers is the number of goroutines used. If less or equal to 0, the value
// of GOMAXPROCS will be used. The library is frozen before any design is
// built. Outcomes are returned in job order.
//
func Sweep(workers int, lib *icgen.Library, jobs []Job) []Outcome {
	lib.Freeze()
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}
	out := make([]Outcome, len(jobs))
	jc := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go worker(lib, jobs, out, jc, &wg)
	}
	for i := range jobs {
		jc <- i
	}
	close(jc)
	wg.Wait()
	return out
}

func worker(lib *icgen.Library, jobs []Job, out []Outcome, jc <-chan int, wg *sync.WaitGroup) {
	defer wg.Done()
	for i := range jc {
		j := jobs[i]
		r, err := New(j.Name, lib, j.Params)
		if err != nil {
			glog.V(1).Infof("sweep: %s: %v", j.Name, err)
			out[i] = Outcome{Name: j.Name, Err: err}
			continue
		}
		out[i] = Outcome{Name: j.Name, Result: r}
	}
}
