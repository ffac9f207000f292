package network

// Result is the outcome of one blocking receive: either a decoded message or
// a timeout. Timeouts are expected and drive retry and fault-suspicion loops.
type Result struct {
	Msg      Message
	TimedOut bool
}

func Received(msg Message) Result { return Result{Msg: msg} }

func TimedOut() Result { return Result{TimedOut: true} }

// Link is one bidirectional endpoint: a receive port paired with a fixed
// destination. Send is fire-and-forget.
type Link interface {
	Send(msg Message) error
	Receive() (Result, error)
	Close() error
}
