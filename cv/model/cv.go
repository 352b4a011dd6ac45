package model

import (
	"encoding/json"
	"sort"
	"strings"

	"cvgen-backend/internal/shared/util"
)

// CV is the structured résumé extracted from free text. JSON keys follow the
// French extraction prompt.
type CV struct {
	Identity    Identity     `json:"identite"`
	Profile     Text         `json:"profil"`
	Experiences []Experience `json:"experiences"`
	Education   []Education  `json:"formations"`
	Skills      Skills       `json:"competences"`
	Languages   StringList   `json:"langues"`
	Interests   StringList   `json:"centres_interet"`
}

// Identity holds contact and civil details.
type Identity struct {
	LastName  Text `json:"nom"`
	FirstName Text `json:"prenom"`
	Age       Text `json:"age"`
	City      Text `json:"ville"`
	Email     Text `json:"email"`
	Phone     Text `json:"telephone"`
}

// Experience is one entry of the professional history.
type Experience struct {
	Role         Text `json:"poste"`
	Organization Text `json:"organisation"`
	StartDate    Text `json:"date_debut"`
	EndDate      Text `json:"date_fin"`
	Description  Text `json:"description"`
}

// Education is one diploma or training entry.
type Education struct {
	Degree      Text `json:"diplome"`
	Institution Text `json:"ecole"`
	Year        Text `json:"annee"`
}

// Skills groups technical and soft skills.
type Skills struct {
	Technical StringList `json:"techniques"`
	Soft      StringList `json:"soft_skills"`
}

// cvAlias drops the custom UnmarshalJSON to avoid recursion.
type cvAlias CV

// UnmarshalJSON canonicalizes object keys (accents, case, spaces) before
// decoding, so "prénom", "Téléphone" or "soft skills" land on their fields.
func (c *CV) UnmarshalJSON(data []byte) error {
	canonical, err := canonicalizeKeys(data)
	if err != nil {
		return err
	}
	var decoded cvAlias
	if err := json.Unmarshal(canonical, &decoded); err != nil {
		return err
	}
	*c = CV(decoded)
	return nil
}

// Normalize trims values, drops empty entries and duplicate skills, and
// replaces nil collections with empty ones.
func (c *CV) Normalize() {
	c.Identity.LastName = String(c.Identity.LastName.Value)
	c.Identity.FirstName = String(c.Identity.FirstName.Value)
	c.Identity.Age = String(c.Identity.Age.Value)
	c.Identity.City = String(c.Identity.City.Value)
	c.Identity.Email = String(c.Identity.Email.Value)
	c.Identity.Phone = String(c.Identity.Phone.Value)
	c.Profile = String(c.Profile.Value)

	experiences := make([]Experience, 0, len(c.Experiences))
	for _, exp := range c.Experiences {
		if exp.empty() {
			continue
		}
		experiences = append(experiences, exp)
	}
	c.Experiences = experiences

	education := make([]Education, 0, len(c.Education))
	for _, edu := range c.Education {
		if !edu.Degree.Valid && !edu.Institution.Valid && !edu.Year.Valid {
			continue
		}
		education = append(education, edu)
	}
	c.Education = education

	c.Skills.Technical = dedupe(c.Skills.Technical)
	c.Skills.Soft = dedupe(c.Skills.Soft)
	c.Languages = dedupe(c.Languages)
	c.Interests = dedupe(c.Interests)
}

// FullName joins first and last name, or returns "" when both are unknown.
func (c CV) FullName() string {
	return strings.TrimSpace(c.Identity.FirstName.Value + " " + c.Identity.LastName.Value)
}

func (e Experience) empty() bool {
	return !e.Role.Valid && !e.Organization.Valid && !e.StartDate.Valid && !e.EndDate.Valid && !e.Description.Valid
}

func dedupe(values StringList) StringList {
	out := make(StringList, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func canonicalizeKeys(data []byte) ([]byte, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out, err := canonicalizeValue(raw)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func canonicalizeValue(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return raw, nil
	}
	switch trimmed[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := make(map[string]json.RawMessage, len(obj))
		from := make(map[string]string, len(obj))
		for _, k := range keys {
			cv, err := canonicalizeValue(obj[k])
			if err != nil {
				return nil, err
			}
			ck := canonicalKey(k)
			if prev, ok := from[ck]; ok && !preferKey(ck, k, cv, prev, out[ck]) {
				continue
			}
			out[ck] = cv
			from[ck] = k
		}
		return json.Marshal(out)
	case '[':
		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err != nil {
			return nil, err
		}
		for i, v := range arr {
			cv, err := canonicalizeValue(v)
			if err != nil {
				return nil, err
			}
			arr[i] = cv
		}
		return json.Marshal(arr)
	default:
		return raw, nil
	}
}

// preferKey decides whether key k with value v replaces prev with prevValue
// when both fold to canonical. A non-null value beats null, then the
// canonical spelling wins. Keys arrive sorted, so remaining ties keep the
// first key.
func preferKey(canonical, k string, v json.RawMessage, prev string, prevValue json.RawMessage) bool {
	if isNull(v) != isNull(prevValue) {
		return isNull(prevValue)
	}
	return k == canonical && prev != canonical
}

func isNull(v json.RawMessage) bool {
	t := strings.TrimSpace(string(v))
	return t == "" || t == "null"
}

// sectionKeys are the top-level keys of a CV object.
var sectionKeys = map[string]struct{}{
	"identite":        {},
	"profil":          {},
	"experiences":     {},
	"formations":      {},
	"competences":     {},
	"langues":         {},
	"centres_interet": {},
}

// HasSection reports whether the JSON object carries at least one CV section,
// accented or differently cased spellings included.
func HasSection(data []byte) (bool, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return false, err
	}
	for k := range obj {
		if _, ok := sectionKeys[canonicalKey(k)]; ok {
			return true, nil
		}
	}
	return false, nil
}

func canonicalKey(k string) string {
	slug := util.Slug(k, 0)
	if slug == "" {
		return k
	}
	return strings.ReplaceAll(slug, "-", "_")
}
