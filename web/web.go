// Package web embeds the server-rendered page templates.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/judyrop/crm/models"
)

//go:embed templates/*.html
var files embed.FS

func Funcs() template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"money":      func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"statuses":   models.OrderStatuses,
		"categories": models.Categories,
		"hasID": func(ids []uint, id uint) bool {
			for _, v := range ids {
				if v == id {
					return true
				}
			}
			return false
		},
	}
}

// Templates parses every page; each file is addressed by its base name.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(files, "templates/*.html")
}
