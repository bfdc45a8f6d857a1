package engine

// Fork spawns a new thread sharing this thread's namespace (namespaces
// are immutable, so sharing is just a pointer) plus the top
// stackTransfer items copied from this thread's data stack, per
// spec.md §4.F. The fork is tentative: it runs against its own fresh
// register transaction, so nothing it does is visible to any other
// thread (including origin) unless and until it independently commits.
// If origin itself never commits the step that produced the fork, the
// fork's existence was never real — callers are responsible for
// marking such forks UNCREATED (choice.Race does this for losing
// clones).
func (th *Thread) Fork(stackTransfer int) *Thread {
	child := New(th.store, th.pool, th.NS)
	items := th.Stack.Snapshot()
	n := len(items)
	if stackTransfer > n {
		stackTransfer = n
	}
	for _, v := range items[n-stackTransfer:] {
		child.Stack.Push(v)
	}
	return child
}

// ForkAtomic is Fork for use inside a choice() clone body: the child
// starts with atomicDepth 0 regardless of origin's, since each clone is
// its own independent step.
func (th *Thread) ForkAtomic(stackTransfer int) *Thread {
	return th.Fork(stackTransfer)
}
