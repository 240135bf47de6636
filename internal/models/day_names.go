package models

import "strings"

// dayNames maps lowercased localized day names to canonical English days.
// Covers English, French, German, Spanish, Italian and Portuguese.
var dayNames = map[string]Day{
	// English
	"monday":    Monday,
	"tuesday":   Tuesday,
	"wednesday": Wednesday,
	"thursday":  Thursday,
	"friday":    Friday,
	"saturday":  Saturday,
	"sunday":    Sunday,
	"mon":       Monday,
	"tue":       Tuesday,
	"wed":       Wednesday,
	"thu":       Thursday,
	"fri":       Friday,
	"sat":       Saturday,
	"sun":       Sunday,

	// French
	"lundi":    Monday,
	"mardi":    Tuesday,
	"mercredi": Wednesday,
	"jeudi":    Thursday,
	"vendredi": Friday,
	"samedi":   Saturday,
	"dimanche": Sunday,

	// German
	"montag":     Monday,
	"dienstag":   Tuesday,
	"mittwoch":   Wednesday,
	"donnerstag": Thursday,
	"freitag":    Friday,
	"samstag":    Saturday,
	"sonntag":    Sunday,

	// Spanish
	"lunes":     Monday,
	"martes":    Tuesday,
	"miércoles": Wednesday,
	"miercoles": Wednesday,
	"jueves":    Thursday,
	"viernes":   Friday,
	"sábado":    Saturday,
	"sabado":    Saturday,
	"domingo":   Sunday,

	// Italian
	"lunedì":    Monday,
	"lunedi":    Monday,
	"martedì":   Tuesday,
	"martedi":   Tuesday,
	"mercoledì": Wednesday,
	"mercoledi": Wednesday,
	"giovedì":   Thursday,
	"giovedi":   Thursday,
	"venerdì":   Friday,
	"venerdi":   Friday,
	"sabato":    Saturday,

	// Portuguese (sábado and domingo already covered by Spanish)
	"segunda-feira": Monday,
	"terça-feira":   Tuesday,
	"terca-feira":   Tuesday,
	"quarta-feira":  Wednesday,
	"quinta-feira":  Thursday,
	"sexta-feira":   Friday,
}

// dayPartNames maps lowercased localized time-of-day names to canonical slots.
var dayPartNames = map[string]TimeOfDay{
	"morning":     Morning,
	"am":          Morning,
	"noon":        Noon,
	"midday":      Noon,
	"lunch":       Noon,
	"evening":     Evening,
	"pm":          Evening,
	"matin":       Morning,
	"midi":        Noon,
	"soir":        Evening,
	"morgen":      Morning,
	"mittag":      Noon,
	"abend":       Evening,
	"mañana":      Morning,
	"manana":      Morning,
	"mediodía":    Noon,
	"mediodia":    Noon,
	"tarde":       Evening,
	"noche":       Evening,
	"mattina":     Morning,
	"mezzogiorno": Noon,
	"sera":        Evening,
}

// NormalizeDay maps a possibly-localized day name to its canonical English
// Day. Returns the canonical day and true if recognized, or the input
// unchanged and false.
func NormalizeDay(raw string) (Day, bool) {
	if d, ok := dayNames[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return d, true
	}
	return Day(raw), false
}

// NormalizeTimeOfDay maps a possibly-localized time-of-day name to its
// canonical TimeOfDay.
func NormalizeTimeOfDay(raw string) (TimeOfDay, bool) {
	if t, ok := dayPartNames[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t, true
	}
	return TimeOfDay(raw), false
}
