package agent

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// skillMeta is the YAML frontmatter of a SKILL.md file.
type skillMeta struct {
	Description string `yaml:"description"`
	Always      bool   `yaml:"always"`
	Requires    struct {
		Bins []string `yaml:"bins"`
		Env  []string `yaml:"env"`
	} `yaml:"requires"`
}

// SkillInfo describes one discovered skill.
type SkillInfo struct {
	Name        string
	Path        string
	Description string
	Always      bool
	Available   bool
	Missing     string // unmet requirements, empty when available
}

// SkillsLoader scans <workspace>/skills/<name>/SKILL.md files. Skills are
// operator-authored prompt extensions; available ones are folded into the
// system prompt.
type SkillsLoader struct {
	skillsDir string
}

func NewSkillsLoader(workspace string) *SkillsLoader {
	return &SkillsLoader{skillsDir: filepath.Join(workspace, "skills")}
}

// List returns all discovered skills with availability resolved.
func (sl *SkillsLoader) List() []SkillInfo {
	entries, err := os.ReadDir(sl.skillsDir)
	if err != nil {
		return nil
	}
	var skills []SkillInfo
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(sl.skillsDir, e.Name(), "SKILL.md")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		meta := sl.frontmatter(e.Name())
		missing := missingRequirements(meta)
		desc := meta.Description
		if desc == "" {
			desc = e.Name()
		}
		skills = append(skills, SkillInfo{
			Name:        e.Name(),
			Path:        path,
			Description: desc,
			Always:      meta.Always,
			Available:   missing == "",
			Missing:     missing,
		})
	}
	return skills
}

// Load returns the raw content of a skill's SKILL.md, or "".
func (sl *SkillsLoader) Load(name string) string {
	data, err := os.ReadFile(filepath.Join(sl.skillsDir, name, "SKILL.md"))
	if err != nil {
		return ""
	}
	return string(data)
}

// PromptSection renders every available skill, frontmatter stripped, for
// inclusion in the system prompt. Unavailable skills appear only in an XML
// summary so the assistant can tell the user what is missing.
func (sl *SkillsLoader) PromptSection() string {
	skills := sl.List()
	if len(skills) == 0 {
		return ""
	}

	var parts []string
	for _, s := range skills {
		if !s.Available {
			continue
		}
		content := stripFrontmatter(sl.Load(s.Name))
		if content == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("### Skill: %s\n\n%s", s.Name, content))
	}

	if summary := sl.unavailableSummary(skills); summary != "" {
		parts = append(parts, summary)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func (sl *SkillsLoader) unavailableSummary(skills []SkillInfo) string {
	var sb strings.Builder
	for _, s := range skills {
		if s.Available {
			continue
		}
		if sb.Len() == 0 {
			sb.WriteString("<unavailable-skills>\n")
		}
		fmt.Fprintf(&sb, "  <skill>\n    <name>%s</name>\n    <description>%s</description>\n    <requires>%s</requires>\n  </skill>\n",
			xmlEscape(s.Name), xmlEscape(s.Description), xmlEscape(s.Missing))
	}
	if sb.Len() == 0 {
		return ""
	}
	sb.WriteString("</unavailable-skills>")
	return sb.String()
}

func (sl *SkillsLoader) frontmatter(name string) skillMeta {
	content := sl.Load(name)
	if !strings.HasPrefix(content, "---") {
		return skillMeta{}
	}
	rest := content[3:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return skillMeta{}
	}
	var m skillMeta
	_ = yaml.Unmarshal([]byte(rest[:end]), &m)
	return m
}

func missingRequirements(m skillMeta) string {
	var missing []string
	for _, bin := range m.Requires.Bins {
		if _, err := exec.LookPath(bin); err != nil {
			missing = append(missing, "CLI: "+bin)
		}
	}
	for _, env := range m.Requires.Env {
		if os.Getenv(env) == "" {
			missing = append(missing, "ENV: "+env)
		}
	}
	return strings.Join(missing, ", ")
}

// stripFrontmatter removes the leading --- ... --- YAML block from markdown.
func stripFrontmatter(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}
	rest := content[3:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return content
	}
	return strings.TrimSpace(rest[end+4:])
}

func xmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
