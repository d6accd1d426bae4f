package utils

import "math/rand"

// GeneratePostId returns a random 24-char hex id, the same shape as the
// ObjectID hex ids the Mongo adapter assigns.
func GeneratePostId() string {
	const alphabet = "0123456789abcdef"
	var ans = make([]byte, 24)
	for i := range ans {
		ans[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(ans)
}
