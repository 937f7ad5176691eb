package parser

import "regexp"

var (
	emailPattern    = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern    = regexp.MustCompile(`\(?\d{2}\)?\s?\d{4,5}[-.\s]?\d{4}`)
	linkedinPattern = regexp.MustCompile(`https?://(www\.)?linkedin\.com/in/[a-zA-Z0-9-_/]+`)
)

// Contacts 从简历文本中提取的联系方式，按出现顺序，允许重复
type Contacts struct {
	Emails   []string
	Phones   []string
	LinkedIn []string
}

// ExtractContacts 用正则表达式提取邮箱、电话和 LinkedIn 链接
func ExtractContacts(text string) Contacts {
	return Contacts{
		Emails:   nonNil(emailPattern.FindAllString(text, -1)),
		Phones:   nonNil(phonePattern.FindAllString(text, -1)),
		LinkedIn: nonNil(linkedinPattern.FindAllString(text, -1)),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
