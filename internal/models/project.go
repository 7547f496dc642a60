package models

// Caller is the authenticated console user behind a request. AccessToken is
// their Supabase JWT, forwarded so the backend applies row-level security.
type Caller struct {
	UserID      string
	AccessToken string
}
