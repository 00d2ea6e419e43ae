package render

// fallbackTemplate is used when a page's declared template does not exist
// in the template directory.
const fallbackTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}{{with .Site.Title}} &middot; {{.}}{{end}}</title>
</head>
<body>
<main>
<h1>{{.Title}}</h1>
<p><small>Last modified {{.Modified.Format "02 Jan 2006"}}</small></p>
{{.Content}}
</main>
</body>
</html>
`
