package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/viray-carlos-miguel/center-patient/internal/domain"
)

func printJSON(v any) error {
	b, err := jsonMarshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatMaybe(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatMaybeTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTime(*t)
}

func printUser(u domain.User) {
	printKV([][2]string{
		{"id", u.ID},
		{"email", u.Email},
		{"role", string(u.Role)},
		{"name", u.FullName()},
		{"active", strconv.FormatBool(u.IsActive)},
		{"last_login_at", formatMaybeTime(u.LastLoginAt)},
		{"created_at", formatTime(u.CreatedAt)},
	})
}

func printUsers(items []domain.User) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			item.Email,
			string(item.Role),
			item.FullName(),
			strconv.FormatBool(item.IsActive),
			formatTime(item.CreatedAt),
		})
	}
	printTable([]string{"ID", "EMAIL", "ROLE", "NAME", "ACTIVE", "CREATED_AT"}, rows)
}

func printCases(items []domain.MedicalCase) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			item.Title,
			string(item.Status),
			string(item.Severity),
			strconv.Itoa(item.Priority),
			item.PatientID,
			formatMaybe(item.DoctorID),
			formatTime(item.CreatedAt),
		})
	}
	printTable([]string{"ID", "TITLE", "STATUS", "SEVERITY", "PRIORITY", "PATIENT", "DOCTOR", "CREATED_AT"}, rows)
}

func printCaseDetail(d caseDetail) {
	c := d.Case
	printKV([][2]string{
		{"id", c.ID},
		{"title", c.Title},
		{"status", string(c.Status)},
		{"severity", string(c.Severity)},
		{"priority", strconv.Itoa(c.Priority)},
		{"patient", c.PatientID},
		{"doctor", formatMaybe(c.DoctorID)},
		{"symptoms", c.Symptoms},
		{"closed_at", formatMaybeTime(c.ClosedAt)},
	})

	fmt.Println()
	rows := make([][]string, 0, len(d.Assessments))
	for _, a := range d.Assessments {
		rows = append(rows, []string{a.AIModel, strconv.FormatFloat(a.ConfidenceScore, 'f', 2, 64), a.Assessment, formatTime(a.CreatedAt)})
	}
	printTable([]string{"MODEL", "CONFIDENCE", "ASSESSMENT", "AT"}, rows)

	fmt.Println()
	rows = make([][]string, 0, len(d.Diagnoses))
	for _, dg := range d.Diagnoses {
		rows = append(rows, []string{formatMaybe(dg.DoctorID), dg.Diagnosis, formatMaybeTime(dg.FollowUpDate), formatTime(dg.CreatedAt)})
	}
	printTable([]string{"DOCTOR", "DIAGNOSIS", "FOLLOW_UP", "AT"}, rows)
}

func printAuditLogs(items []domain.AuditLog) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			string(item.Action),
			item.TableName,
			item.RecordID,
			formatMaybe(item.UserID),
			item.IPAddress,
			formatTime(item.CreatedAt),
		})
	}
	printTable([]string{"ID", "ACTION", "TABLE", "RECORD", "ACTOR", "IP", "AT"}, rows)
}

func printStats(s domain.Stats) {
	rows := [][2]string{
		{"total_cases", strconv.FormatInt(s.TotalCases, 10)},
		{"total_users", strconv.FormatInt(s.TotalUsers, 10)},
	}
	statuses := make([]string, 0, len(s.CasesByStatus))
	for status := range s.CasesByStatus {
		statuses = append(statuses, string(status))
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		rows = append(rows, [2]string{"cases." + status, strconv.FormatInt(s.CasesByStatus[domain.CaseStatus(status)], 10)})
	}
	roles := make([]string, 0, len(s.UsersByRole))
	for role := range s.UsersByRole {
		roles = append(roles, string(role))
	}
	sort.Strings(roles)
	for _, role := range roles {
		rows = append(rows, [2]string{"users." + role, strconv.FormatInt(s.UsersByRole[domain.Role(role)], 10)})
	}
	printKV(rows)
}
