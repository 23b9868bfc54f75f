// Package report renders a markdown digest of researched articles,
// grouped by company and category over a date range.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/casescout/casescout/app/database"
)

type Generator struct {
	companyRepo database.CompanyRepository
	articleRepo database.ArticleRepository
}

func NewGenerator(companyRepo database.CompanyRepository, articleRepo database.ArticleRepository) *Generator {
	return &Generator{
		companyRepo: companyRepo,
		articleRepo: articleRepo,
	}
}

// Generate renders the digest for articles published between start and end
// inclusive. Every enabled company gets a section even when it has no
// articles in the range.
func (g *Generator) Generate(start, end time.Time) (string, error) {
	companies, err := g.companyRepo.GetEnabledCompanies()
	if err != nil {
		return "", fmt.Errorf("failed to load companies: %w", err)
	}

	articles, err := g.articleRepo.ListForReport(start, end)
	if err != nil {
		return "", fmt.Errorf("failed to load articles: %w", err)
	}

	byCompany := make(map[int64][]database.Article)
	for _, article := range articles {
		byCompany[article.CompanyID] = append(byCompany[article.CompanyID], article)
	}

	var b strings.Builder
	b.WriteString("# AI Initiative Research Report\n\n")
	fmt.Fprintf(&b, "**Period**: %s to %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Fprintf(&b, "**Generated**: %s\n\n", time.Now().Format("2006-01-02 15:04"))
	b.WriteString("---\n\n")

	for _, company := range companies {
		writeCompanySection(&b, company, byCompany[company.ID])
	}

	return b.String(), nil
}

func writeCompanySection(b *strings.Builder, company database.Company, articles []database.Article) {
	fmt.Fprintf(b, "# %s\n", company.Name)
	if company.Region != "" {
		fmt.Fprintf(b, "**Region**: %s\n", company.Region)
	}
	b.WriteString("\n")

	if len(articles) == 0 {
		b.WriteString("No articles found.\n\n---\n\n")
		return
	}

	// Group by category, keeping first-seen order stable.
	var categories []string
	byCategory := make(map[string][]database.Article)
	for _, article := range articles {
		category := article.Category
		if category == "" {
			category = "Other"
		}
		if _, ok := byCategory[category]; !ok {
			categories = append(categories, category)
		}
		byCategory[category] = append(byCategory[category], article)
	}

	for _, category := range categories {
		fmt.Fprintf(b, "## [%s]\n\n", category)
		for _, article := range byCategory[category] {
			writeArticle(b, article)
		}
	}

	b.WriteString("\n")
}

func writeArticle(b *strings.Builder, article database.Article) {
	fmt.Fprintf(b, "### %s\n\n", article.Title)

	if article.Summary != "" {
		b.WriteString(article.Summary)
		b.WriteString("\n\n")
	} else if article.Content != "" {
		b.WriteString(article.Content)
		b.WriteString("\n\n")
	}

	b.WriteString("#### Details\n")
	fmt.Fprintf(b, "- **Category**: %s\n", valueOr(article.Category, "Uncategorized"))
	fmt.Fprintf(b, "- **Business area**: %s\n", valueOr(article.BusinessArea, "Uncategorized"))

	if len(article.Tags) > 0 {
		tags := make([]string, 0, len(article.Tags))
		for _, tag := range article.Tags {
			tags = append(tags, "#"+strings.TrimSpace(tag))
		}
		fmt.Fprintf(b, "- **Tags**: %s\n", strings.Join(tags, " "))
	}

	fmt.Fprintf(b, "- **Published**: %s\n", article.PublishedDate.Format("2006-01-02"))
	fmt.Fprintf(b, "- **Source**: %s\n", article.URL)
	b.WriteString("\n---\n\n")
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
