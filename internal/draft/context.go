package draft

// Context is the single source of truth for an in-progress order, shared by
// every screen in the creation flow. It is injected at the flow root rather
// than held as ambient global state. Single goroutine, synchronous mutation;
// only one screen is active at a time, so no locking.
type Context struct {
	eventType      string
	foodPreference string
	cuisine        string
	venue          string
	businessID     string
	serviceType    string
	sessions       []SessionDraft
}

// NewContext returns an empty draft context.
func NewContext() *Context {
	return &Context{}
}

func (c *Context) EventType() string      { return c.eventType }
func (c *Context) FoodPreference() string { return c.foodPreference }
func (c *Context) Cuisine() string        { return c.cuisine }
func (c *Context) Venue() string          { return c.venue }
func (c *Context) BusinessID() string     { return c.businessID }
func (c *Context) ServiceType() string    { return c.serviceType }

// Sessions returns the draft's sessions in insertion order.
func (c *Context) Sessions() []SessionDraft { return c.sessions }

func (c *Context) SetEventType(v string)      { c.eventType = v }
func (c *Context) SetFoodPreference(v string) { c.foodPreference = v }
func (c *Context) SetCuisine(v string)        { c.cuisine = v }
func (c *Context) SetVenue(v string)          { c.venue = v }
func (c *Context) SetBusinessID(v string)     { c.businessID = v }
func (c *Context) SetServiceType(v string)    { c.serviceType = v }

// AppendSession adds a finalized session to the end of the draft.
func (c *Context) AppendSession(s SessionDraft) {
	c.sessions = append(c.sessions, s)
}

// SetSessions replaces the session list wholesale (editor finalization).
func (c *Context) SetSessions(sessions []SessionDraft) {
	c.sessions = sessions
}

// RemoveSession drops the session at the index. Out-of-range is a no-op.
func (c *Context) RemoveSession(i int) {
	if i < 0 || i >= len(c.sessions) {
		return
	}
	c.sessions = append(c.sessions[:i], c.sessions[i+1:]...)
}

// ClearSessions empties the session list.
func (c *Context) ClearSessions() {
	c.sessions = nil
}

// Reset restores every field to its initial empty value. Call exactly once,
// after a confirmed successful submission, so the next order starts clean.
// Never call it on a failed submission: the user retries from the same draft.
func (c *Context) Reset() {
	*c = Context{}
}
