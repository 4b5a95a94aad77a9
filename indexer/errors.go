package indexer

import "fmt"

// ErrorKind classifies processing failures so the loop can decide between
// containment and abort without inspecting error text
type ErrorKind int

const (
	// KindRPC marks ledger RPC failures; the tick retries later
	KindRPC ErrorKind = iota
	// KindDecode marks unexpected transaction shapes; contained per signature
	KindDecode
	// KindStorage marks store write failures; never swallowed, blocks advancement
	KindStorage
)

func (k ErrorKind) String() string {
	switch k {
	case KindRPC:
		return "rpc"
	case KindDecode:
		return "decode"
	case KindStorage:
		return "storage"
	}
	return "unknown"
}

// ProcessError wraps a failure with its kind and, when applicable, the
// signature being processed
type ProcessError struct {
	Kind      ErrorKind
	Signature string
	Err       error
}

func (e *ProcessError) Error() string {
	if e.Signature != "" {
		return fmt.Sprintf("%s error processing %s: %v", e.Kind, e.Signature, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}
