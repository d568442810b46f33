// Package roster maps Discord usernames to enrolled students.
package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// NotAStudent is the resolved name for known non-student accounts, e.g. the
// professor and teaching assistants.
const NotAStudent = "NOT_A_STUDENT"

// Student is one roster row.
type Student struct {
	FullName              string
	DiscordUsername       string
	DiscordUserID         string
	OtherDiscordUsernames []string
}

// Initials returns the upper-cased first letters of each name part.
func (s Student) Initials() string {
	var b strings.Builder
	for _, part := range strings.Fields(s.FullName) {
		b.WriteString(strings.ToUpper(part[:1]))
	}
	return b.String()
}

// Roster resolves Discord usernames to students. Accounts listed as known
// non-students resolve to NotAStudent instead of failing.
type Roster struct {
	students    []Student
	nonStudents map[string]bool
}

// New builds a roster from students plus the usernames of known non-student
// accounts.
func New(students []Student, nonStudentUsernames []string) *Roster {
	nonStudents := make(map[string]bool, len(nonStudentUsernames))
	for _, name := range nonStudentUsernames {
		nonStudents[strings.ToLower(name)] = true
	}
	return &Roster{students: students, nonStudents: nonStudents}
}

// Load reads the roster CSV. The header row names the columns; full_name and
// discord_username are required, other_discord_usernames is a comma-joined
// optional list.
func Load(path string, nonStudentUsernames []string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()
	students, err := parseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", path, err)
	}
	return New(students, nonStudentUsernames), nil
}

func parseCSV(r io.Reader) ([]Student, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"full_name", "discord_username"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var students []Student
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		student := Student{
			FullName:        field(row, "full_name"),
			DiscordUsername: field(row, "discord_username"),
			DiscordUserID:   field(row, "discord_user_id"),
		}
		if others := field(row, "other_discord_usernames"); others != "" {
			for _, name := range strings.Split(others, ",") {
				if name = strings.TrimSpace(name); name != "" {
					student.OtherDiscordUsernames = append(student.OtherDiscordUsernames, name)
				}
			}
		}
		students = append(students, student)
	}
	return students, nil
}

// Students returns every roster row.
func (r *Roster) Students() []Student {
	return r.students
}

// Resolve finds the student behind a Discord username. A username matches if
// it equals, or contains, one of the student's known usernames, case
// insensitively; Discord's name#discriminator forms make exact matching too
// brittle. Known non-student accounts resolve to a NotAStudent entry.
func (r *Roster) Resolve(discordUsername string) (Student, error) {
	needle := strings.ToLower(discordUsername)
	for _, student := range r.students {
		for _, known := range append([]string{student.DiscordUsername}, student.OtherDiscordUsernames...) {
			known = strings.ToLower(known)
			if known == "" {
				continue
			}
			if known == needle || strings.Contains(needle, known) {
				return student, nil
			}
		}
	}
	if r.nonStudents[needle] {
		return Student{FullName: NotAStudent, DiscordUsername: discordUsername, DiscordUserID: "000"}, nil
	}
	return Student{}, fmt.Errorf("no student with discord username %q", discordUsername)
}
