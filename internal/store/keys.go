package store

// Storage layout shared by repositories and the relationship ledger.
const (
	KeyUsers    = "users"
	KeyPosts    = "posts"
	KeyComments = "comments"
)

func CurrentUserKey(sessionID string) string { return "sessions/" + sessionID + "/currentUser" }
func LikedPostsKey(sessionID string) string  { return "sessions/" + sessionID + "/likedPosts" }
func SavedPostsKey(sessionID string) string  { return "sessions/" + sessionID + "/savedPosts" }

func FollowingKey(userID string) string { return "following-" + userID }
func FollowersKey(userID string) string { return "followedBy-" + userID }

func LikeCountKey(slug string) string   { return "like-count-" + slug }
func SuggestionsKey(slug string) string { return "suggestions-" + slug }
