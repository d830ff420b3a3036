package shapes

import "fmt"

type Stack[T any] struct {
	items []T
}

func (s *Stack[T]) Push(v T) {
	s.items = append(s.items, v)
	s.grow()
}

func (s *Stack[T]) grow() {}

type Logger struct{}

func (l Logger) Log(msg string) {
	fmt.Println(msg)
}

func NewStack() *Stack[int] {
	return &Stack[int]{}
}

func Run() {
	s := NewStack()
	s.Push(1)
	var l Logger
	l.Log("pushed")
	func() { NewStack() }()
}

var defaultStack = NewStack()
