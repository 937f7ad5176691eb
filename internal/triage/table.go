package triage

import (
	"fmt"
	"html/template"
	"io"

	"resume-triage/internal/types"
)

// LinkFunc 生成某个文件名对应的 PDF 下载地址
type LinkFunc func(filename string) string

type tableView struct {
	Title string
	Rows  []rowView
}

type rowView struct {
	types.ExportRow
	LinkedInLinks []string
	DownloadURL   string
}

var tableTemplate = template.Must(template.New("table").Parse(`{{range .}}<section>
{{if .Title}}<h3>{{.Title}}</h3>
{{end}}<table>
<thead><tr><th>Arquivo</th><th>Nome</th><th>Telefones</th><th>E-mails</th><th>LinkedIn</th><th>Palavras-chave</th><th>Experiência</th><th>PDF</th></tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.Filename}}</td><td>{{.FullName}}</td><td>{{.Phones}}</td><td>{{.Emails}}</td><td>{{range $i, $l := .LinkedInLinks}}{{if $i}}, {{end}}<a href="{{$l}}" target="_blank">{{$l}}</a>{{end}}</td><td>{{.Keywords}}</td><td>{{.Experience}}</td><td><a href="{{.DownloadURL}}" download>{{.Filename}}</a></td></tr>
{{end}}</tbody>
</table>
</section>
{{end}}`))

// RenderBankTable 渲染简历库表格
func RenderBankTable(w io.Writer, records []*types.CandidateRecord, link LinkFunc) error {
	return tableTemplate.Execute(w, []tableView{buildView("", records, link)})
}

// RenderGroupTables 每个分组渲染一张表，标题为命中数
func RenderGroupTables(w io.Writer, groups []types.RankedGroup, link LinkFunc) error {
	views := make([]tableView, 0, len(groups))
	for _, g := range groups {
		views = append(views, buildView(GroupTitle(g.Count), g.Members, link))
	}
	return tableTemplate.Execute(w, views)
}

// GroupTitle 分组标题
func GroupTitle(count int) string {
	if count == 1 {
		return "1 palavra-chave encontrada"
	}
	return fmt.Sprintf("%d palavras-chave encontradas", count)
}

func buildView(title string, records []*types.CandidateRecord, link LinkFunc) tableView {
	view := tableView{Title: title, Rows: make([]rowView, 0, len(records))}
	for _, rec := range records {
		rv := rowView{ExportRow: Row(rec), LinkedInLinks: rec.LinkedInLinks}
		if link != nil {
			rv.DownloadURL = link(rec.Filename)
		}
		view.Rows = append(view.Rows, rv)
	}
	return view
}
