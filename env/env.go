// Evaluates relevant environment variables and provides reasonable defaults for runtime operation
package env

import (
	"os"
	"strings"
)

const (
	FORMAT                  = "N3FMT_FORMAT"
	CACHE_DSN               = "N3FMT_CACHE_DSN"
	REASONER                = "N3_REASONER"
	TIMEOUT                 = "N3FMT_TIMEOUT"
	HTTP_TIMEOUT_MS         = "N3FMT_HTTP_TIMEOUT_MS"
	HTTP_USER               = "N3FMT_HTTP_USER"
	HTTP_PASS               = "N3FMT_HTTP_PASS"
	NO_COLOR                = "NO_COLOR"
	WORKERS                 = "N3FMT_WORKERS"
	IT_REASONER_SKIP        = "IT_SKIP_REASONER"
	DEFAULT_FORMAT          = "n3"
	DEFAULT_REASONER        = "eye"
	DEFAULT_TIMEOUT         = "60s"
	DEFAULT_HTTP_TIMEOUT_MS = "30000"
	DEFAULT_WORKERS         = "4"
)

type Env struct {
	// serialization format used when -format is not supplied on the command line
	Format,
	// sqlite DSN of the round-trip result cache, caching is disabled when empty
	CacheDsn,
	// command used to invoke the N3 reasoner
	Reasoner,
	// upper bound on the duration of a single invocation, in time.ParseDuration syntax
	Timeout,
	// timeout applied to HTTP requests made when input is retrieved from a URL
	HttpTimeoutMs,
	// user presented in the Authorization header when retrieving input over HTTP
	HttpUser,
	// password presented in the Authorization header when retrieving input over HTTP
	HttpPassword,
	// any non-empty value disables coloured diagnostics
	NoColor,
	// maximum number of documents processed in parallel by -dir
	Workers,
	// Skips integration tests that require a reasoner on the PATH
	ItSkipReasoner string
}

// answers a struct containing supported environment variables
func New() Env {
	return Env{
		Format:        getEnv("${N3FMT_FORMAT}", DEFAULT_FORMAT),
		CacheDsn:      getEnv("${N3FMT_CACHE_DSN}", ""),
		Reasoner:      getEnv("${N3_REASONER}", DEFAULT_REASONER),
		Timeout:       getEnv("${N3FMT_TIMEOUT}", DEFAULT_TIMEOUT),
		HttpTimeoutMs: getEnv("${N3FMT_HTTP_TIMEOUT_MS}", DEFAULT_HTTP_TIMEOUT_MS),
		HttpUser:      getEnv("${N3FMT_HTTP_USER}", ""),
		HttpPassword:  getEnv("${N3FMT_HTTP_PASS}", ""),
		NoColor:       getEnv("${NO_COLOR}", ""),
		Workers:       getEnv("${N3FMT_WORKERS}", DEFAULT_WORKERS),

		ItSkipReasoner: getEnv("${IT_SKIP_REASONER}", "false"),
	}
}

func getEnv(varName, defaultValue string) string {
	varName = strings.TrimSpace(varName)
	if strings.HasPrefix(varName, "${") {
		varName = varName[2:]
	}

	if strings.HasSuffix(varName, "}") {
		varName = varName[:len(varName)-1]
	}

	if value, exists := os.LookupEnv(varName); !exists {
		return defaultValue
	} else {
		return value
	}
}
