package session

// Record is the server-side state of one session.
//
// A zero LastActivity means the freshness timestamp was never set.
type Record struct {
	AdminID       string
	AdminUsername string
	LastActivity  int64
	CSRFToken     string
}

// Authenticated reports whether both principal fields are present.
func (r *Record) Authenticated() bool {
	return r != nil && r.AdminID != "" && r.AdminUsername != ""
}

// Clone returns a copy that can be mutated without affecting r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
