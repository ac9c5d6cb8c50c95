package queue

import "testing"

func TestPushPopFIFO(t *testing.T) {
	r := New[int](3)
	r.Push(1)
	r.Push(2)
	r.Push(3)
	for _, want := range []int{1, 2, 3} {
		got, ok := r.Pop()
		if !ok || got != want {
			t.Fatalf("Pop() = (%v, %v), want (%v, true)", got, ok, want)
		}
	}
	if _, ok := r.Pop(); ok {
		t.Fatalf("Pop() on empty queue should report ok=false")
	}
}

func TestPeekDoesNotDequeue(t *testing.T) {
	r := New[string](2)
	r.Push("a")
	v, ok := r.Peek()
	if !ok || v != "a" {
		t.Fatalf("Peek() = (%v, %v), want (a, true)", v, ok)
	}
	if r.Len() != 1 {
		t.Fatalf("Len() after Peek() = %d, want 1", r.Len())
	}
}

func TestWrapAround(t *testing.T) {
	r := New[int](2)
	r.Push(1)
	r.Push(2)
	r.Pop()
	r.Push(3) // wraps the write cursor back to index 0
	v1, _ := r.Pop()
	v2, _ := r.Pop()
	if v1 != 2 || v2 != 3 {
		t.Fatalf("got (%d, %d), want (2, 3)", v1, v2)
	}
}

func TestPushBeyondCapacityPanics(t *testing.T) {
	r := New[int](1)
	r.Push(1)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic pushing beyond capacity")
		}
	}()
	r.Push(2)
}
