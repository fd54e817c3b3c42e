package identity

import "regexp"

var (
	emailPattern      = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// ExtractEmail 返回文本中按出现顺序的第一个邮箱，没有时 ok 为 false。
// 先把连续空白折叠成单个空格，再做匹配。
func ExtractEmail(text string) (email string, ok bool) {
	collapsed := whitespacePattern.ReplaceAllString(text, " ")
	email = emailPattern.FindString(collapsed)
	return email, email != ""
}
