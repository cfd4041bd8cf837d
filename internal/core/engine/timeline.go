package engine

import (
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var timelineParser = func() *when.Parser {
	p := when.New(nil)
	p.Add(en.All...)
	p.Add(common.All...)
	return p
}()

// AnnotateTimeline extracts a concrete date from a natural-language timeline
// answer ("by the end of March", "in 6 weeks"). The boolean is false when no
// date could be read; callers treat annotation as optional.
func AnnotateTimeline(answer string, now time.Time) (string, bool) {
	r, err := timelineParser.Parse(answer, now)
	if err != nil || r == nil {
		return "", false
	}
	return r.Time.Format("2006-01-02"), true
}
