package ports

// BackrefOp is the kind of back-reference repair a task performs.
type BackrefOp string

const (
	BackrefAttach BackrefOp = "attach" // add PromptID to the user's prompts list
	BackrefDetach BackrefOp = "detach" // remove PromptID from the user's prompts list
)

// BackrefTask describes one pending User.prompts repair. Tasks are produced
// when the secondary write of a create/delete fails after the prompt write
// already succeeded.
type BackrefTask struct {
	ID       string // correlation id for logs
	Op       BackrefOp
	UserID   string
	PromptID string
}

// BackrefEnqueuer is how the catalog service hands repairs to the reconciler.
type BackrefEnqueuer interface {
	Enqueue(task BackrefTask)
}
