package models

// Item is one unit of data flowing through a workflow step.
type Item struct {
	JSON  map[string]any `json:"json"`
	Error *ItemError     `json:"error,omitempty"`
}

// ItemError describes why an item could not be processed.
type ItemError struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
	NodeID  string `json:"node_id,omitempty"`
}

func (e *ItemError) Error() string {
	return e.Message
}

// NewItem wraps data into an item.
func NewItem(data map[string]any) Item {
	if data == nil {
		data = map[string]any{}
	}

	return Item{JSON: data}
}

// Clone returns a shallow copy of the item whose JSON map can be modified
// without affecting the receiver.
func (i Item) Clone() Item {
	data := make(map[string]any, len(i.JSON)+1)
	for k, v := range i.JSON {
		data[k] = v
	}

	return Item{JSON: data, Error: i.Error}
}

// WithField returns a copy of the item with key set. The receiver is not modified.
func (i Item) WithField(key string, value any) Item {
	out := i.Clone()
	out.JSON[key] = value

	return out
}

// WithError returns a copy of the item carrying err.
func (i Item) WithError(err *ItemError) Item {
	out := i.Clone()
	out.Error = err

	return out
}

// HasError reports whether the item carries an error.
func (i Item) HasError() bool {
	return i.Error != nil
}
