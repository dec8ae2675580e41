package user

// User identifies an authenticated account. Authentication itself happens
// outside this service; the stable Uid it supplies is used as the
// namespace key for all per-user blobs and is trusted as-is.
type User struct {
	Uid string
}
