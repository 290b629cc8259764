package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TopicRule maps a topic name to the keywords that select it. Rules are
// evaluated in order and the first match wins, so overlapping keywords
// resolve to the earlier rule.
type TopicRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Rules holds the classifier keyword tables and, optionally, a feed list
// overriding FEED_URLS.
type Rules struct {
	Positive []string    `yaml:"positive"`
	Negative []string    `yaml:"negative"`
	Topics   []TopicRule `yaml:"topics"`
	Feeds    []string    `yaml:"feeds"`
}

// DefaultRules returns the built-in Spanish keyword tables.
func DefaultRules() Rules {
	return Rules{
		Positive: []string{
			"avance", "inaugura", "mejora", "logro", "excelente",
			"felicita", "moderniza", "beneficio", "apoyo", "reconocimiento",
			"entrega", "gran",
		},
		Negative: []string{
			"queja", "denuncia", "corrupcion", "fraude", "retraso",
			"falla", "abuso", "pesimo", "escandalo", "protesta",
			"fuga", "clausura",
		},
		Topics: []TopicRule{
			{Name: "seguridad", Keywords: []string{"robo", "asalto", "inseguridad", "policia", "delincuencia", "patrulla"}},
			{Name: "servicios", Keywords: []string{"agua", "drenaje", "basura", "alumbrado", "bache", "pavimento"}},
			{Name: "impuestos", Keywords: []string{"impuesto", "predial", "tarifa", "cobro", "multa"}},
			{Name: "transporte", Keywords: []string{"transporte", "transito", "trafico", "vialidad", "semaforo"}},
			{Name: "salud", Keywords: []string{"salud", "hospital", "clinica", "vacuna"}},
			{Name: "tramites", Keywords: []string{"tramite", "licencia", "permiso", "ventanilla"}},
		},
	}
}

// LoadRules reads a YAML rules file and overlays it on the defaults:
// a non-empty section in the file replaces the corresponding default
// table wholesale. An empty path returns the defaults unchanged.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("reading rules file: %w", err)
	}

	var loaded Rules
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return rules, fmt.Errorf("parsing rules file: %w", err)
	}

	if len(loaded.Positive) > 0 {
		rules.Positive = loaded.Positive
	}
	if len(loaded.Negative) > 0 {
		rules.Negative = loaded.Negative
	}
	if len(loaded.Topics) > 0 {
		rules.Topics = loaded.Topics
	}
	if len(loaded.Feeds) > 0 {
		rules.Feeds = loaded.Feeds
	}

	return rules, nil
}
