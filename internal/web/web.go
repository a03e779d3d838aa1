package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"line-auth-web/internal/middleware"
	"line-auth-web/internal/session"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var loginErrors = map[string]string{
	"AccessDenied":  "Sign in was cancelled.",
	"Callback":      "Sign in failed. Please try again.",
	"Configuration": "Sign in is temporarily unavailable.",
}

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(
		template.New("").
			Funcs(template.FuncMap{"title": title}).
			ParseFS(templateFS, "templates/*.html"),
	)
}

// Static serves the embedded assets under /static.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// title gets a fresh Caser per call; Casers are not safe for concurrent use.
func title(s string) string {
	return cases.Title(language.English).String(s)
}

type pageData struct {
	View      *session.View
	Providers []string
	Error     string
}

type Pages struct {
	providers []string
}

func NewPages(providers []string) *Pages {
	return &Pages{providers: providers}
}

func (p *Pages) RegisterRoutes(public gin.IRouter, protected gin.IRouter) {
	public.GET("/login", p.Login)
	protected.GET("/", p.Home)
	protected.GET("/api/me", p.Me)
}

// Login renders the sign-in affordance. Visitors who already have a session
// go straight home.
func (p *Pages) Login(c *gin.Context) {
	if view := middleware.GinView(c); view != nil && view.User != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	c.HTML(http.StatusOK, "login.html", pageData{
		Providers: p.providers,
		Error:     loginErrors[c.Query("error")],
	})
}

// Home is protected content; it only runs after the Access Gate allowed it.
func (p *Pages) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", pageData{
		View: middleware.GinView(c),
	})
}

func (p *Pages) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.GinView(c).User)
}
