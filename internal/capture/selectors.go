package capture

// X.com DOM selectors
// These are isolated here because X changes their DOM frequently

const (
	TweetArticle = `article[data-testid="tweet"]`
	LoginForm    = `[data-testid="loginButton"]`
)

// loginWallJS reports whether the page shows a login prompt and no post
const loginWallJS = `document.querySelector('` + LoginForm + `') !== null && document.querySelector('` + TweetArticle + `') === null`
