package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/sma-substitute-api/internal/models"
)

var italianMonths = [...]string{
	"Gennaio", "Febbraio", "Marzo", "Aprile", "Maggio", "Giugno",
	"Luglio", "Agosto", "Settembre", "Ottobre", "Novembre", "Dicembre",
}

// LongItalianDate renders e.g. "Lunedì 3 Marzo 2025".
func LongItalianDate(date time.Time) string {
	return fmt.Sprintf("%s %d %s %d", models.DayOf(date), date.Day(), italianMonths[date.Month()-1], date.Year())
}

// FormatAnnouncement builds the message staff share with colleagues once
// substitutions are confirmed.
func FormatAnnouncement(date time.Time, assignments []models.Assignment) string {
	rows := append([]models.Assignment(nil), assignments...)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Period.Ordinal() < rows[j].Period.Ordinal()
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Sostituzioni per %s:\n", LongItalianDate(date))
	if len(rows) > 0 {
		b.WriteString("\n")
	}
	for _, a := range rows {
		substitute := a.Substitute
		if substitute == "" {
			substitute = models.NoSubstitute
		}
		fmt.Fprintf(&b, "• Classe %s – %s ora (assente: %s) → %s\n", a.ClassName, a.Period, a.AbsentTeacher, substitute)
	}
	return strings.TrimSpace(b.String())
}
