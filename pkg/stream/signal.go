package stream

import "fmt"

type (
	// SignalKind identifies one of the four subscriber callbacks
	SignalKind uint8

	// Signal is a reified subscriber callback
	Signal[T any] struct {
		Kind         SignalKind
		Value        T
		Err          error
		Subscription Subscription
	}
)

const (
	OnSubscribe SignalKind = iota
	OnNext
	OnError
	OnComplete
)

var signalNames = [...]string{
	OnSubscribe: "onSubscribe",
	OnNext:      "onNext",
	OnError:     "onError",
	OnComplete:  "onComplete",
}

func (k SignalKind) String() string {
	if int(k) < len(signalNames) {
		return signalNames[k]
	}
	return fmt.Sprintf("signal(%d)", k)
}

// SubscribeSignal reifies an OnSubscribe callback
func SubscribeSignal[T any](s Subscription) Signal[T] {
	return Signal[T]{Kind: OnSubscribe, Subscription: s}
}

// NextSignal reifies an OnNext callback
func NextSignal[T any](v T) Signal[T] {
	return Signal[T]{Kind: OnNext, Value: v}
}

// ErrorSignal reifies an OnError callback
func ErrorSignal[T any](err error) Signal[T] {
	return Signal[T]{Kind: OnError, Err: err}
}

// CompleteSignal reifies an OnComplete callback
func CompleteSignal[T any]() Signal[T] {
	return Signal[T]{Kind: OnComplete}
}

// IsTerminal reports whether the signal ends the sequence
func (s Signal[T]) IsTerminal() bool {
	return s.Kind == OnError || s.Kind == OnComplete
}

// Deliver replays the signal onto a subscriber
func (s Signal[T]) Deliver(sub Subscriber[T]) {
	switch s.Kind {
	case OnSubscribe:
		sub.OnSubscribe(s.Subscription)
	case OnNext:
		sub.OnNext(s.Value)
	case OnError:
		sub.OnError(s.Err)
	case OnComplete:
		sub.OnComplete()
	}
}

func (s Signal[T]) String() string {
	switch s.Kind {
	case OnSubscribe:
		return fmt.Sprintf("%s(%T)", s.Kind, s.Subscription)
	case OnNext:
		return fmt.Sprintf("%s(%v)", s.Kind, s.Value)
	case OnError:
		return fmt.Sprintf("%s(%v)", s.Kind, s.Err)
	default:
		return s.Kind.String() + "()"
	}
}
