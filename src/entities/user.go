package entities

type ChatUser struct {
	ID        int64
	Username  string
	FirstName string
}

// Handle is what payment descriptions show for the user.
func (u ChatUser) Handle() string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}
