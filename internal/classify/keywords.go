package classify

// Keyword tables shared by all collectors. Matching happens on normalized
// (lowercased, accent-stripped) text, so only unaccented forms appear here.

var internshipKeywords = []string{
	"estagio",
	"estagiario",
	"intern",
	"trainee",
}

var juniorKeywords = []string{
	"junior",
	"jr",
	"entry level",
	"entry-level",
	"nivel 1",
}

var fullstackKeywords = []string{
	"fullstack",
	"full stack",
	"full-stack",
}

var frontendKeywords = []string{
	"frontend",
	"front-end",
	"front end",
	"react",
	"vue",
	"angular",
}

var backendKeywords = []string{
	"backend",
	"back-end",
	"back end",
	"node",
	"java",
	"python",
	".net",
}

var mobileKeywords = []string{
	"mobile",
	"android",
	"ios",
	"flutter",
	"react native",
}

var remoteKeywords = []string{
	"remoto",
	"remote",
	"home office",
	"anywhere",
	"trabalho remoto",
}

// techKeywords is the whole-word tag vocabulary. Alias forms (reactjs,
// node.js, k8s, ...) are folded into their canonical tag by tagAliases.
// Bare "js"/"ts" are deliberately absent: they match inside "react.js" and
// "node.js" and would mislabel framework mentions as plain javascript.
var techKeywords = []string{
	"react", "reactjs", "react.js",
	"vue", "vuejs", "vue.js",
	"angular",
	"node", "nodejs", "node.js",
	"typescript",
	"javascript",
	"python",
	"java",
	"c#", "csharp",
	".net", "dotnet",
	"php",
	"ruby",
	"go", "golang",
	"rust",
	"kotlin",
	"swift",
	"flutter",
	"react native",
	"docker",
	"kubernetes", "k8s",
	"aws", "amazon web services",
	"azure",
	"gcp", "google cloud",
	"mongodb", "mongo",
	"postgresql", "postgres",
	"mysql",
	"redis",
	"graphql",
	"rest", "restful",
	"nextjs", "next.js",
	"nestjs", "nest.js",
	"express",
	"fastify",
	"django",
	"flask",
	"spring", "spring boot",
	"laravel",
	"rails", "ruby on rails",
	"html", "css", "sass", "scss",
	"tailwind", "tailwindcss",
	"bootstrap",
	"git",
	"linux",
	"sql",
	"nosql",
	"api",
	"microservices",
	"ci/cd",
	"agile", "scrum",
}

var tagAliases = map[string]string{
	"reactjs":             "react",
	"react.js":            "react",
	"vuejs":               "vue",
	"vue.js":              "vue",
	"nodejs":              "node",
	"node.js":             "node",
	"csharp":              "c#",
	"dotnet":              ".net",
	"golang":              "go",
	"k8s":                 "kubernetes",
	"amazon web services": "aws",
	"google cloud":        "gcp",
	"mongo":               "mongodb",
	"postgres":            "postgresql",
	"next.js":             "nextjs",
	"nest.js":             "nestjs",
	"tailwindcss":         "tailwind",
	"ruby on rails":       "rails",
	"spring boot":         "spring",
	"restful":             "rest",
}

// techJobKeywords gate broad-query sources (Gupy) to technology postings.
var techJobKeywords = []string{
	"desenvolvedor", "developer", "programador", "programacao",
	"software", "sistema",
	"frontend", "front-end", "backend", "back-end",
	"fullstack", "full stack", "mobile", "web",
	"aplicativo", "app", "codigo", "code",
	"tecnologia da informacao",
	"react", "angular", "vue", "node", "javascript", "typescript",
	"python", "java", "c#", ".net", "php", "ruby",
	"kotlin", "swift", "flutter", "android", "ios",
	"sql", "banco de dados", "database", "api",
	"devops", "cloud", "aws", "azure", "docker", "git",
}

// devJobKeywords is the narrower gate used by generic job boards (Vagas).
var devJobKeywords = []string{
	"desenvolvedor", "developer", "programador", "programmer",
	"frontend", "backend", "fullstack", "mobile", "software",
	"web", "react", "node", "java", "python", ".net", "php",
}

// modalityWords are source labels that describe the work arrangement, not a
// technology. They are skipped when folding labels into tags.
var modalityWords = map[string]bool{
	"remoto":     true,
	"remote":     true,
	"presencial": true,
	"hibrido":    true,
}
