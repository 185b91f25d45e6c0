package competition

import (
	"bytes"
	"html/template"
	"reflect"

	"github.com/justinjudd/leaguebracket/models"
	"github.com/justinjudd/leaguebracket/tournament"
)

const bracketHTML = `
<h4>{{.Name}}</h4>
<main class="bracket">
{{ range $i, $round := .Rounds }}
    <ul>
    <li class="round-name">{{ $round.Name }}</li>
    {{ range $j, $match := $round.Matches -}}
        <li class="game game-top{{if winner $match $match.Player1}} winner{{end}}">{{name $match.Player1}} <span>{{if resolved $match}}{{$match.Player1Score}}{{end}}</span></li>
        <li class="game game-bottom{{if winner $match $match.Player2}} winner{{end}}">{{name $match.Player2}} <span>{{if resolved $match}}{{$match.Player2Score}}{{end}}</span></li>
        {{if $match.ByePlayer}}<li class="bye">bye: {{name $match.ByePlayer}}</li>{{end}}
        {{if last $j $round.Matches | not }}<li>&nbsp;</li> {{end}}
    {{ end -}}</ul>
{{ end }}
</main>
`

const positionsHTML = `
<table class="positions">
<caption>Positions</caption>
{{ range .Positions }}
    <tr><td>{{ordinal .Rank}}</td><td>{{name .PlayerID}}</td><td>{{.Points}}</td><td>{{.Narrative}}</td></tr>
{{ end }}</table>
`

// Round is the matches of one round-name of a bracket
type Round struct {
	Name    string
	Matches []models.Match
}

// Bracket is a sub-bracket laid out for display
type Bracket struct {
	Name   string
	Rounds []Round
}

// GenerateCohortHTML renders every bracket of a cohort followed by its positions. Names maps player ids
// to display names
func GenerateCohortHTML(rec models.CohortRecord, names map[string]string) ([]byte, error) {
	funcMap := template.FuncMap{
		"last": func(x int, a interface{}) bool {
			return x == reflect.ValueOf(a).Len()-1
		},
		"winner": func(m models.Match, player string) bool {
			return models.IsResolved(m) && m.Winner == player
		},
		"resolved": models.IsResolved,
		"name": func(id string) string {
			if n, ok := names[id]; ok && n != "" {
				return n
			}
			return id
		},
		"ordinal": tournament.Ordinal,
	}
	bracketTmpl, err := template.New("bracket").Funcs(funcMap).Parse(bracketHTML)
	if err != nil {
		return nil, err
	}
	positionsTmpl, err := template.New("positions").Funcs(funcMap).Parse(positionsHTML)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("<h1>")
	template.HTMLEscape(&buf, []byte(rec.Cohort.Key.String()))
	buf.WriteString("</h1>")
	for _, b := range layout(rec) {
		if err := bracketTmpl.Execute(&buf, b); err != nil {
			return nil, err
		}
	}
	if err := positionsTmpl.Execute(&buf, rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// layout groups a cohort's matches by bracket and round-name, in the order they were created
func layout(rec models.CohortRecord) []Bracket {
	var brackets []Bracket
	for _, b := range rec.Brackets {
		name := b.Path
		if name == "" {
			name = "Main"
		}
		out := Bracket{Name: name + " (" + b.Shape.String() + ")"}
		index := map[string]int{}
		for _, m := range rec.Matches {
			if m.Bracket != b.Path {
				continue
			}
			rn := m.RoundName()
			i, ok := index[rn]
			if !ok {
				i = len(out.Rounds)
				index[rn] = i
				out.Rounds = append(out.Rounds, Round{Name: rn})
			}
			out.Rounds[i].Matches = append(out.Rounds[i].Matches, m)
		}
		brackets = append(brackets, out)
	}
	return brackets
}
