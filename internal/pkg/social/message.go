package social

import (
	"fmt"
	"strings"

	"github.com/civicvoice/CivicVoice/app/models"
)

const (
	// descriptionLimit caps how much of the issue description goes into a post
	descriptionLimit = 100
	// maxHashtags caps the derived hashtag set
	maxHashtags = 8
	// taggedAuthorities is how many authority handles get tagged per post
	taggedAuthorities = 3
)

// authorityHandles are the government and authority accounts tagged on posts,
// in priority order.
var authorityHandles = []string{
	"@JharkhandGovt",
	"@CMOfficeJharkhand",
	"@JharkhandPolice",
	"@JharkhandUrban",
	"@JharkhandRural",
	"@JharkhandHealth",
	"@JharkhandPWD",
	"@JharkhandEducation",
}

var baseHashtags = []string{"#JharkhandIssues", "#CivicIssue", "#PublicService"}

// categoryTags maps title keywords to issue-category hashtags
var categoryTags = []struct {
	keywords []string
	tags     []string
}{
	{[]string{"road", "pothole"}, []string{"#RoadIssue", "#Infrastructure"}},
	{[]string{"water", "drainage"}, []string{"#WaterIssue", "#Sanitation"}},
	{[]string{"electricity", "power"}, []string{"#PowerIssue", "#Electricity"}},
	{[]string{"garbage", "waste"}, []string{"#WasteManagement", "#Cleanliness"}},
	{[]string{"health", "hospital"}, []string{"#HealthIssue", "#PublicHealth"}},
}

// GenerateHashtags derives a deterministic hashtag set from an issue's title
// and location: the fixed base tags, a location tag with whitespace stripped,
// and category tags matched against title keywords, capped at maxHashtags.
func GenerateHashtags(title, location string) []string {
	hashtags := make([]string, 0, maxHashtags)
	hashtags = append(hashtags, baseHashtags...)

	locationTag := "#" + strings.Join(strings.Fields(location), "")
	hashtags = append(hashtags, locationTag)

	titleLower := strings.ToLower(title)
	for _, category := range categoryTags {
		for _, keyword := range category.keywords {
			if strings.Contains(titleLower, keyword) {
				hashtags = append(hashtags, category.tags...)
				break
			}
		}
	}

	if len(hashtags) > maxHashtags {
		hashtags = hashtags[:maxHashtags]
	}
	return hashtags
}

// BuildMessage renders the outbound post for an issue. The template is
// deterministic: same issue in, same text out.
func BuildMessage(issue *models.Issue) string {
	authorities := authorityHandles[:taggedAuthorities]
	hashtags := GenerateHashtags(issue.Title, issue.Location)

	// Truncate by characters, not bytes, so multi-byte scripts survive intact
	description := issue.Description
	if runes := []rune(description); len(runes) > descriptionLimit {
		description = string(runes[:descriptionLimit]) + "..."
	}

	return fmt.Sprintf(`🚨 CIVIC ISSUE ALERT 🚨

📍 Location: %s
🔸 Issue: %s

%s

%s Please take immediate action!

%s

#DigitalIndia #GoodGovernance`,
		issue.Location,
		issue.Title,
		description,
		strings.Join(authorities, " "),
		strings.Join(hashtags, " "),
	)
}
