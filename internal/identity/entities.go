package identity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jdkato/prose/v2"
)

// Entity 是一个命名实体。
type Entity struct {
	Text  string
	Label string
}

// Recognizer 抽象命名实体识别，便于测试替换。
type Recognizer interface {
	Entities(text string) ([]Entity, error)
}

// ProseRecognizer 使用 prose 的感知机模型识别实体。
type ProseRecognizer struct{}

func (ProseRecognizer) Entities(text string) ([]Entity, error) {
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("prose document: %w", err)
	}
	ents := doc.Entities()
	out := make([]Entity, 0, len(ents))
	for _, ent := range ents {
		out = append(out, Entity{Text: ent.Text, Label: ent.Label})
	}
	return out, nil
}

func annotate(ents []Entity) (name string, orgs, locs []string) {
	orgSet := make(map[string]struct{})
	locSet := make(map[string]struct{})
	for _, ent := range ents {
		text := strings.TrimSpace(ent.Text)
		if text == "" {
			continue
		}
		switch strings.ToUpper(ent.Label) {
		case "PERSON":
			if name == "" {
				name = text
			}
		case "ORG", "ORGANIZATION":
			orgSet[text] = struct{}{}
		case "GPE", "LOC", "LOCATION":
			locSet[text] = struct{}{}
		}
	}
	return name, sortedKeys(orgSet), sortedKeys(locSet)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
