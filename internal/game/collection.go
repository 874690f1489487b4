package game

import "encoding/json"

// Collection is an insertion-ordered set of fish keyed by id. It marshals as a
// plain JSON array.
type Collection struct {
	order []string
	byID  map[string]Fish
}

func NewCollection(fish ...Fish) *Collection {
	c := &Collection{byID: make(map[string]Fish, len(fish))}
	for _, f := range fish {
		_ = c.Add(f)
	}
	return c
}

func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

func (c *Collection) Get(id string) (Fish, bool) {
	if c == nil {
		return Fish{}, false
	}
	f, ok := c.byID[id]
	return f, ok
}

func (c *Collection) Has(id string) bool {
	_, ok := c.Get(id)
	return ok
}

// Add appends f. It fails with ErrDuplicateFish when the id is already present.
func (c *Collection) Add(f Fish) error {
	if c.byID == nil {
		c.byID = make(map[string]Fish)
	}
	if _, ok := c.byID[f.ID]; ok {
		return errorf(ErrDuplicateFish, "fish %s", f.ID)
	}
	c.order = append(c.order, f.ID)
	c.byID[f.ID] = f
	return nil
}

// Put replaces an existing fish in place, keeping its position.
func (c *Collection) Put(f Fish) error {
	if !c.Has(f.ID) {
		return errorf(ErrNotFound, "fish %s", f.ID)
	}
	c.byID[f.ID] = f
	return nil
}

func (c *Collection) Remove(id string) (Fish, error) {
	f, ok := c.Get(id)
	if !ok {
		return Fish{}, errorf(ErrNotFound, "fish %s", id)
	}
	delete(c.byID, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return f, nil
}

func (c *Collection) All() []Fish {
	out := make([]Fish, 0, c.Len())
	if c == nil {
		return out
	}
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Collection) Clone() *Collection {
	return NewCollection(c.All()...)
}

func (c *Collection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.All())
}

func (c *Collection) UnmarshalJSON(raw []byte) error {
	var fish []Fish
	if err := json.Unmarshal(raw, &fish); err != nil {
		return err
	}
	*c = *NewCollection(fish...)
	return nil
}
