package course

import (
	"github.com/jonmatthis/og-classbot/pkg/fusion"
	"github.com/jonmatthis/og-classbot/pkg/papers"
)

// MaxTokensPerChunk bounds how much raw conversation text a single fold call
// receives before the source is split.
const MaxTokensPerChunk = 2048

func base(name string, create, update fusion.PromptTemplate) fusion.FusionPolicy {
	return fusion.FusionPolicy{
		Name:              name,
		CreateTemplate:    create,
		UpdateTemplate:    update,
		MaxTokensPerChunk: MaxTokensPerChunk,
		ExtraVars: map[string]string{
			"course_description": Description,
		},
	}
}

// StudentPolicy folds conversation-thread summaries into one profile per student.
func StudentPolicy() fusion.FusionPolicy {
	return base("student", studentCreateTemplate, studentUpdateTemplate)
}

// ClassPolicy folds finished student profiles into one whole-class summary.
func ClassPolicy() fusion.FusionPolicy {
	return base("class", classCreateTemplate, classUpdateTemplate)
}

// VideoChatterPolicy folds the students' descriptions of the shared video
// into one running description of what the video shows.
func VideoChatterPolicy() fusion.FusionPolicy {
	return base("video_chatter", videoCreateTemplate, videoUpdateTemplate)
}

// GreenCheckPolicy folds a student's paper-discussion messages into a
// structured paper summary, validated against the paper schema.
func GreenCheckPolicy() fusion.FusionPolicy {
	p := base("green_check", greenCheckCreateTemplate, greenCheckUpdateTemplate)
	p.Schema = papers.Schema{}
	p.ExtraVars["format_instructions"] = papers.FieldInstructions
	return p
}

// MetaPolicy folds arbitrary summaries into a running rollup. It is the
// generic fan-in used when no course-specific persona applies.
func MetaPolicy() fusion.FusionPolicy {
	p := base("meta", metaCreateTemplate, metaUpdateTemplate)
	return p
}

// Policies maps pass names to their policy constructors.
var Policies = map[string]func() fusion.FusionPolicy{
	"student":    StudentPolicy,
	"class":      ClassPolicy,
	"video":      VideoChatterPolicy,
	"greencheck": GreenCheckPolicy,
	"meta":       MetaPolicy,
}
