package concurrency

const (
	// DefaultMax default max
	DefaultMax = 256
)

// DefaultGoLimit default go limit, max:256
var DefaultGoLimit = NewGoLimit(DefaultMax)

// GoLimit bounded goroutine limiter used by scan workers
type GoLimit struct {
	ch chan int
}

// NewGoLimit new go limit
func NewGoLimit(max int) *GoLimit {
	return &GoLimit{
		ch: make(chan int, max),
	}
}

// Add acquire a slot
func (g *GoLimit) Add() {
	g.ch <- 1
}

// Done release a slot
func (g *GoLimit) Done() {
	<-g.ch
}

// Close close chan
func (g *GoLimit) Close() {
	close(g.ch)
}
