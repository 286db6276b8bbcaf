package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ReportKind identifica um dos relatórios disponíveis
type ReportKind string

const (
	ReportByUser   ReportKind = "usuarios"
	ReportByDay    ReportKind = "dia"
	ReportByWeek   ReportKind = "semana"
	ReportAssigned ReportKind = "fixadas"
)

// UnknownUser agrupa atividades finalizadas sem responsável registrado
const UnknownUser = "(sem usuário)"

var reportTitles = map[ReportKind]string{
	ReportByUser:   "Concluídas por Usuário",
	ReportByDay:    "Concluídas por Dia",
	ReportByWeek:   "Concluídas por Semana",
	ReportAssigned: "Fixadas por Usuário",
}

// ReportKinds lista os tipos na ordem exibida pelas telas
func ReportKinds() []ReportKind {
	return []ReportKind{ReportByUser, ReportByDay, ReportByWeek, ReportAssigned}
}

// ParseReportKind valida o tipo vindo da URL
func ParseReportKind(s string) (ReportKind, bool) {
	k := ReportKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := reportTitles[k]; ok {
		return k, true
	}
	return "", false
}

// Nested indica se o relatório tem um segundo nível de agrupamento (dia/semana)
func (k ReportKind) Nested() bool {
	return k == ReportByDay || k == ReportByWeek
}

func (k ReportKind) Title() string {
	return reportTitles[k]
}

// ReportBucket é o segundo nível de agrupamento (dia ou semana ISO)
type ReportBucket struct {
	Key        string
	Activities []Activity
}

// ReportGroup reúne as atividades de um usuário
type ReportGroup struct {
	User       string
	Activities []Activity
	Buckets    []ReportBucket
}

// Count retorna o total de atividades do grupo em qualquer nível
func (g ReportGroup) Count() int {
	if len(g.Buckets) == 0 {
		return len(g.Activities)
	}
	n := 0
	for _, b := range g.Buckets {
		n += len(b.Activities)
	}
	return n
}

// Report é o resultado agrupado de um relatório, com usuários e chaves ordenados
type Report struct {
	Kind   ReportKind
	Groups []ReportGroup
}

// BuildReport agrupa as atividades segundo o tipo. As chaves de dia e semana
// são calculadas no fuso informado.
func BuildReport(kind ReportKind, activities []Activity, loc *time.Location) (*Report, error) {
	if _, ok := reportTitles[kind]; !ok {
		return nil, fmt.Errorf("tipo de relatório inválido: %q", kind)
	}
	if loc == nil {
		loc = time.UTC
	}

	byUser := make(map[string][]Activity)
	for _, a := range activities {
		user, ok := reportOwner(kind, a)
		if !ok {
			continue
		}
		byUser[user] = append(byUser[user], a)
	}

	users := make([]string, 0, len(byUser))
	for u := range byUser {
		users = append(users, u)
	}
	sort.Strings(users)

	report := &Report{Kind: kind, Groups: make([]ReportGroup, 0, len(users))}
	for _, u := range users {
		list := byUser[u]
		sortForReport(kind, list)

		group := ReportGroup{User: u}
		if !kind.Nested() {
			group.Activities = list
			report.Groups = append(report.Groups, group)
			continue
		}

		buckets := make(map[string][]Activity)
		for _, a := range list {
			key := bucketKey(kind, reportTime(kind, a).In(loc))
			buckets[key] = append(buckets[key], a)
		}
		keys := make([]string, 0, len(buckets))
		for k := range buckets {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			group.Buckets = append(group.Buckets, ReportBucket{Key: k, Activities: buckets[k]})
		}
		report.Groups = append(report.Groups, group)
	}

	return report, nil
}

func reportOwner(kind ReportKind, a Activity) (string, bool) {
	if kind == ReportAssigned {
		if a.AssignedTo == nil || *a.AssignedTo == "" {
			return "", false
		}
		return *a.AssignedTo, true
	}

	if a.Status != StatusDone {
		return "", false
	}
	if a.ConcluidoPor == nil || *a.ConcluidoPor == "" {
		return UnknownUser, true
	}
	return *a.ConcluidoPor, true
}

// reportTime é a data de conclusão, ou a última alteração para registros antigos sem ela
func reportTime(kind ReportKind, a Activity) time.Time {
	if kind == ReportAssigned {
		return a.CreatedAt
	}
	if a.CompletedAt != nil {
		return *a.CompletedAt
	}
	return a.UpdatedAt
}

func bucketKey(kind ReportKind, t time.Time) string {
	if kind == ReportByWeek {
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	}
	return t.Format("2006-01-02")
}

func sortForReport(kind ReportKind, list []Activity) {
	sort.SliceStable(list, func(i, j int) bool {
		ti, tj := reportTime(kind, list[i]), reportTime(kind, list[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return list[i].ID < list[j].ID
	})
}

// MarshalJSON produz o formato consumido pelas telas:
// usuário -> [atividade] ou usuário -> {chave -> [atividade]}
func (r Report) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Groups))
	for _, g := range r.Groups {
		if !r.Kind.Nested() {
			out[g.User] = nonNil(g.Activities)
			continue
		}
		inner := make(map[string][]Activity, len(g.Buckets))
		for _, b := range g.Buckets {
			inner[b.Key] = nonNil(b.Activities)
		}
		out[g.User] = inner
	}
	return json.Marshal(out)
}

// UnmarshalJSON aceita os dois formatos; o tipo é deduzido do primeiro valor
// quando Kind não foi definido antes da decodificação.
func (r *Report) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	users := make([]string, 0, len(raw))
	for u := range raw {
		users = append(users, u)
	}
	sort.Strings(users)

	r.Groups = make([]ReportGroup, 0, len(users))
	for _, u := range users {
		value := bytes.TrimSpace(raw[u])
		group := ReportGroup{User: u}

		if len(value) > 0 && value[0] == '{' {
			var inner map[string][]Activity
			if err := json.Unmarshal(value, &inner); err != nil {
				return fmt.Errorf("relatório: grupo %q: %w", u, err)
			}
			keys := make([]string, 0, len(inner))
			for k := range inner {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				group.Buckets = append(group.Buckets, ReportBucket{Key: k, Activities: inner[k]})
			}
		} else {
			if err := json.Unmarshal(value, &group.Activities); err != nil {
				return fmt.Errorf("relatório: grupo %q: %w", u, err)
			}
		}
		r.Groups = append(r.Groups, group)
	}
	return nil
}

func nonNil(list []Activity) []Activity {
	if list == nil {
		return []Activity{}
	}
	return list
}
