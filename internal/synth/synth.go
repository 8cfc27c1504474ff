// Package synth generates a deterministic synthetic employee directory.
package synth

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/kailas-cloud/collabmatch/internal/domain/profile"
)

var (
	roles = []string{
		"Software Engineer", "Senior Software Engineer", "Staff Engineer",
		"Backend Engineer", "Frontend Engineer", "Full Stack Engineer",
		"DevOps Engineer", "Data Engineer", "ML Engineer",
		"Engineering Manager", "Product Manager", "Tech Lead",
		"Designer", "UX Researcher", "QA Engineer",
	}

	departments = []string{"Engineering", "Product", "Design", "Data", "Platform Engineering", "Infrastructure"}

	locations = []string{
		"San Francisco, CA", "New York, NY", "Seattle, WA", "Austin, TX",
		"Remote", "Berlin, Germany", "London, UK", "Toronto, Canada",
	}

	managers = []string{"Sarah Thompson", "Michael Chen", "Emily Rodriguez", "David Park", "Lisa Johnson"}

	skills = []string{
		"Python", "Java", "JavaScript", "TypeScript", "Go", "Rust", "C++",
		"React", "Angular", "Vue", "Node.js", "Django", "Flask", "FastAPI",
		"SQL", "PostgreSQL", "MongoDB", "Redis", "Elasticsearch",
		"AWS", "GCP", "Azure", "Docker", "Kubernetes", "Terraform",
		"Kafka", "RabbitMQ", "GraphQL", "REST API", "gRPC",
		"Machine Learning", "TensorFlow", "PyTorch", "Scikit-learn",
		"Git", "CI/CD", "Jenkins", "GitHub Actions", "Microservices",
	}

	tools = []string{
		"VSCode", "IntelliJ", "Vim", "Jira", "Confluence", "Slack",
		"Figma", "Sketch", "Datadog", "Grafana", "Prometheus",
		"Postman", "Jupyter", "Tableau",
	}

	interests = []string{
		"Open Source", "AI/ML", "Cloud Architecture", "DevOps",
		"Frontend Development", "Backend Systems", "Data Engineering",
		"Security", "Performance Optimization", "API Design",
	}

	summaries = []string{
		"%[1]s with %[2]d years of experience in %[3]s. Passionate about building scalable systems and mentoring junior engineers.",
		"Experienced %[1]s specializing in %[3]s. Strong background in distributed systems and cloud infrastructure.",
		"%[1]s focused on %[3]s. Known for delivering high-quality code and driving technical excellence.",
		"%[1]s with expertise in %[3]s. Led multiple cross-functional teams to successful product launches.",
		"%[1]s passionate about %[3]s. Combines technical depth with strong communication skills.",
	}

	focus = map[string]string{
		"Backend Engineer":    "backend development and API design",
		"Frontend Engineer":   "modern frontend frameworks and UI/UX",
		"Full Stack Engineer": "end-to-end web application development",
		"DevOps Engineer":     "infrastructure automation and cloud deployment",
		"Data Engineer":       "data pipeline development and analytics",
		"ML Engineer":         "machine learning and predictive modeling",
	}
)

type projectTemplate struct {
	name, desc string
	tech       []string
}

var projects = []projectTemplate{
	{"Payment Gateway Modernization", "Migrated legacy payment system to microservices architecture, reducing latency by 40%",
		[]string{"Java", "Kubernetes", "Kafka", "PostgreSQL"}},
	{"Real-time Analytics Dashboard", "Built scalable analytics platform processing 10M events/day",
		[]string{"Python", "Kafka", "Elasticsearch", "React"}},
	{"Mobile App Redesign", "Led complete redesign of iOS/Android apps, increasing user engagement by 35%",
		[]string{"React Native", "TypeScript", "GraphQL"}},
	{"Database Sharding Initiative", "Implemented horizontal sharding to support 10x traffic growth",
		[]string{"PostgreSQL", "Python", "Redis"}},
	{"CI/CD Pipeline Automation", "Automated deployment pipeline, reducing release time from 2 days to 2 hours",
		[]string{"Docker", "Kubernetes", "Jenkins", "Terraform"}},
	{"ML-powered Recommendation Engine", "Developed personalized recommendations using collaborative filtering",
		[]string{"Python", "TensorFlow", "Kubernetes", "PostgreSQL"}},
	{"API Rate Limiting Service", "Built distributed rate limiting service handling 100K requests/sec",
		[]string{"Go", "Redis", "Kubernetes"}},
	{"Data Pipeline Optimization", "Optimized ETL pipelines, reducing processing time by 60%",
		[]string{"Python", "Apache Spark", "Airflow", "AWS"}},
	{"Frontend Component Library", "Created reusable component library used across 15+ products",
		[]string{"React", "TypeScript", "Storybook"}},
	{"Security Audit Platform", "Built automated security scanning and vulnerability reporting system",
		[]string{"Python", "Docker", "PostgreSQL"}},
}

// Generate returns count synthetic profiles with IDs emp001, emp002 and so on.
// The same non-zero seed always yields the same profiles; seed 0 picks a random one.
func Generate(count int, seed uint64) []profile.Profile {
	f := gofakeit.New(seed)

	out := make([]profile.Profile, 0, max(count, 0))
	for i := range count {
		out = append(out, generateOne(f, i+1))
	}
	return out
}

func generateOne(f *gofakeit.Faker, n int) profile.Profile {
	name := f.Name()
	role := f.RandomString(roles)
	years := f.Number(2, 15)

	picked := sample(f, skills, f.Number(6, 12))
	primary := picked[:4]
	secondary := picked[4:min(8, len(picked))]

	area, ok := focus[role]
	if !ok {
		area = "software development and system design"
	}

	return profile.Profile{
		ID:              fmt.Sprintf("emp%03d", n),
		Name:            name,
		Title:           role,
		Seniority:       seniority(years),
		Department:      f.RandomString(departments),
		Location:        f.RandomString(locations),
		Email:           fmt.Sprintf("%s.%d@company.com", emailLocal(name), f.Number(1, 999)),
		Manager:         f.RandomString(managers),
		ExperienceYears: years,
		Summary:         fmt.Sprintf(f.RandomString(summaries), role, years, area),
		Skills:          picked,
		PrimarySkills:   primary,
		SecondarySkills: secondary,
		Tools:           sample(f, tools, f.Number(3, 6)),
		Projects:        sampleProjects(f, f.Number(2, 4)),
		Interests:       sample(f, interests, f.Number(2, 4)),
	}
}

func sampleProjects(f *gofakeit.Faker, n int) []profile.Project {
	idx := make([]int, len(projects))
	for i := range idx {
		idx[i] = i
	}
	f.ShuffleInts(idx)

	out := make([]profile.Project, 0, n)
	for _, i := range idx[:n] {
		tpl := projects[i]
		out = append(out, profile.Project{
			Name:        tpl.name,
			Description: tpl.desc,
			Tech:        sample(f, tpl.tech, min(f.Number(2, 4), len(tpl.tech))),
		})
	}
	return out
}

// sample returns n distinct items from pool in random order.
func sample(f *gofakeit.Faker, pool []string, n int) []string {
	c := make([]string, len(pool))
	copy(c, pool)
	f.ShuffleStrings(c)
	return c[:min(n, len(c))]
}

func seniority(years int) string {
	switch {
	case years < 3:
		return "Junior"
	case years < 6:
		return "Mid-level"
	case years < 10:
		return "Senior"
	case years < 15:
		return "Staff"
	default:
		return "Principal"
	}
}

func emailLocal(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r == ' ':
			b.WriteRune('.')
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}
