package services

// Actor identifies who issues a request. The zero value is an anonymous visitor.
type Actor struct {
	UserID uint
}

var Anonymous = Actor{}

func AsUser(id uint) Actor {
	return Actor{UserID: id}
}

func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

// Owns reports whether the actor is the given author.
func (a Actor) Owns(authorID uint) bool {
	return a.Authenticated() && a.UserID == authorID
}
