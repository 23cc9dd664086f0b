package model

import "strings"

// SkillDelimiter separates skills in the portal's keySkills string.
const SkillDelimiter = ","

// ToggleSkill flips membership of skill in the portal's comma-joined skill
// string. An absent skill is appended; a present one is removed everywhere it
// occurs. Empty elements are kept as-is so the portal's delimiter layout
// (leading, trailing, or doubled commas) survives an add/remove round trip.
func ToggleSkill(skills, skill string) string {
	parts := strings.Split(skills, SkillDelimiter)
	if !HasSkill(skills, skill) {
		if skills == "" {
			return skill
		}
		return skills + SkillDelimiter + skill
	}

	kept := parts[:0]
	for _, p := range parts {
		if p != skill {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, SkillDelimiter)
}

// HasSkill reports whether skill is an exact element of skills.
func HasSkill(skills, skill string) bool {
	for _, p := range strings.Split(skills, SkillDelimiter) {
		if p == skill {
			return true
		}
	}
	return false
}
