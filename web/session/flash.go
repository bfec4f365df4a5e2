package session

// FlashKind is the category a flash message is rendered under.
type FlashKind string

const (
	FlashSuccess  FlashKind = "success_msg"
	FlashErrorMsg FlashKind = "error_msg"
	FlashError    FlashKind = "error"
)

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Kind FlashKind
	Text string
}

// FlashQueue holds pending flashes in the order they were pushed.
type FlashQueue struct {
	Items []Flash
}

func (q *FlashQueue) Push(kind FlashKind, text string) {
	q.Items = append(q.Items, Flash{Kind: kind, Text: text})
}

func (q *FlashQueue) Len() int {
	return len(q.Items)
}

// DrainAll returns every queued flash grouped by kind and empties the queue.
// Each kind is present in the result even when it has no messages.
func (q *FlashQueue) DrainAll() map[FlashKind][]string {
	out := map[FlashKind][]string{
		FlashSuccess:  {},
		FlashErrorMsg: {},
		FlashError:    {},
	}
	for _, f := range q.Items {
		out[f.Kind] = append(out[f.Kind], f.Text)
	}
	q.Items = nil
	return out
}
