// Command contact-submit sends one contact form submission to a running API,
// going through the same validation, encoding and feedback as the website.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"fourwheels-backend/internal/delivery/http/middleware"
	"fourwheels-backend/pkg/attachment"
	"fourwheels-backend/pkg/consent"
	"fourwheels-backend/pkg/contactform"
	"fourwheels-backend/pkg/logger"

	"github.com/gabriel-vasile/mimetype"
)

type fileList []string

func (f *fileList) String() string     { return strings.Join(*f, ",") }
func (f *fileList) Set(v string) error { *f = append(*f, v); return nil }

func main() {
	os.Exit(run())
}

func run() int {
	var (
		apiBase     = flag.String("api", "http://localhost:4000/api", "API base URL")
		name        = flag.String("name", "", "full name")
		prefix      = flag.String("phone-prefix", "", "international dialling prefix (default +48)")
		phone       = flag.String("phone", "", "local phone number")
		email       = flag.String("email", "", "e-mail address")
		vin         = flag.String("vin", "", "vehicle identification number")
		msg         = flag.String("msg", "", "message")
		noCSRF      = flag.Bool("no-csrf", false, "skip fetching a CSRF token")
		consentFile = flag.String("consent-file", "", "where to keep cookie preferences")
		marketing   = flag.Bool("accept-marketing", false, "accept marketing cookies before sending")
		timeout     = flag.Duration("timeout", 60*time.Second, "request timeout")
		files       fileList
	)
	flag.Var(&files, "file", "attachment path (repeatable)")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"))

	if *consentFile != "" {
		if _, err := recordConsent(*consentFile, *marketing); err != nil {
			logger.Log.Error("consent store unavailable", "error", err)
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar, Timeout: *timeout}
	base := strings.TrimRight(*apiBase, "/")

	ctrl := contactform.NewController(contactform.Config{
		Endpoint: base + "/contact",
		Client:   client,
	})

	if !*noCSRF {
		token, err := fetchCSRFToken(ctx, client, base)
		if err != nil {
			logger.Log.Warn("no CSRF token, sending without one", "error", err)
		}
		ctrl.SetCSRFToken(token)
	}

	ctrl.SetName(*name)
	if *prefix != "" {
		ctrl.SetPhonePrefix(*prefix)
	}
	ctrl.SetPhoneLocal(*phone)
	ctrl.SetEmail(*email)
	ctrl.SetVIN(*vin)
	ctrl.SetMessage(*msg)

	if len(files) > 0 {
		loaded, err := loadFiles(files)
		if err != nil {
			logger.Log.Error("cannot read attachment", "error", err)
			return 1
		}
		if err := ctrl.AddFiles(loaded...); err != nil {
			fmt.Fprintln(os.Stderr, "Załączniki:", err)
		}
	}

	outcome, err := ctrl.Submit(ctx)
	if err != nil {
		logger.Log.Error("submission not sent", "error", err)
		return 1
	}

	fb := contactform.Describe(outcome, contactform.Contact{
		Phone: envOr("BUSINESS_PHONE", "+48 796 000 000"),
		Email: envOr("BUSINESS_EMAIL", "kontakt@4kolka.pl"),
	})
	fmt.Printf("%s\n%s\n", fb.Title, fb.Message)
	if fb.ShowContact {
		fmt.Printf("Tel.: %s  E-mail: %s\n", fb.Phone, fb.Email)
	}
	if s, ok := outcome.(contactform.Success); ok {
		fmt.Println("ID:", s.MessageID)
		return 0
	}
	return 2
}

// recordConsent stores the answer and reports whether the marketing choice
// differs from what was stored before.
func recordConsent(path string, marketing bool) (bool, error) {
	store, err := consent.Open(path)
	if err != nil {
		return false, err
	}
	before, _ := store.Read()
	updates, cancel := store.Subscribe()
	defer cancel()

	if marketing {
		err = store.EnableMarketing()
	} else if _, answered := store.Read(); !answered {
		err = store.Write(consent.Default())
	}
	if err != nil {
		return false, err
	}

	select {
	case prefs := <-updates:
		if prefs.Marketing != before.Marketing {
			logger.Log.Info("Marketing consent changed", "marketing", prefs.Marketing)
			return true, nil
		}
	default:
	}
	return false, nil
}

// fetchCSRFToken primes the cookie jar with the double-submit cookie and
// returns the matching token.
func fetchCSRFToken(ctx context.Context, client *http.Client, base string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/csrf", nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("csrf endpoint returned %d", resp.StatusCode)
	}
	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.CSRFToken == "" {
		return "", errors.New("empty csrf token")
	}
	if secureCookieOverHTTP(resp) {
		// The jar keeps the cookie but never sends it back over http.
		logger.Log.Warn("CSRF cookie is Secure but the API is plain http; set COOKIE_SECURE=false on the server for local use",
			"cookie", middleware.CSRFTokenCookieName)
	}
	return body.CSRFToken, nil
}

func secureCookieOverHTTP(resp *http.Response) bool {
	if resp.Request == nil || resp.Request.URL.Scheme != "http" {
		return false
	}
	for _, c := range resp.Cookies() {
		if c.Name == middleware.CSRFTokenCookieName && c.Secure {
			return true
		}
	}
	return false
}

func loadFiles(paths []string) ([]attachment.File, error) {
	out := make([]attachment.File, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		contentType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
		out = append(out, attachment.File{
			Name:        filepath.Base(p),
			Size:        info.Size(),
			ContentType: contentType,
			ModTime:     info.ModTime(),
			Content:     data,
		})
	}
	return out, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
