package provider

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/dbterm/dbterm/config"
	"github.com/dbterm/dbterm/dberr"
)

// ParseURL turns a connection URL into a ConnectionConfig using the schemes
// declared by the registered providers. File-based schemes produce a file
// path; backends without a compiled-in driver keep the whole URL as the
// provider URI.
func ParseURL(r *Registry, raw string) (config.ConnectionConfig, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return config.ConnectionConfig{}, errors.Wrapf(dberr.ErrUnknownScheme, "%v", err)
	}
	dbType := r.GetByScheme(u.Scheme)
	if dbType == "" {
		return config.ConnectionConfig{}, errors.Wrapf(dberr.ErrUnknownScheme, "%q", u.Scheme)
	}
	spec, err := r.Get(dbType)
	if err != nil {
		return config.ConnectionConfig{}, err
	}

	cfg := config.ConnectionConfig{DBType: dbType}

	if spec.IsFileBased {
		cfg.FilePath = filePathOf(u)
		cfg.Name = cfg.FilePath
		return cfg, nil
	}

	if u.Host == "" && u.Opaque != "" {
		// Opaque forms like bigquery:project/dataset stay provider URIs.
		cfg.ProviderURI = raw
		cfg.Name = raw
		return cfg, nil
	}

	cfg.Host = u.Hostname()
	cfg.Port = spec.DefaultPort
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return config.ConnectionConfig{}, errors.Newf("invalid port %q in %q", p, raw)
		}
		cfg.Port = n
	}
	if u.User != nil {
		cfg.Username = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}
	cfg.Database = strings.TrimPrefix(u.Path, "/")

	q := u.Query()
	if len(q) > 0 {
		cfg.Options = make(map[string]string, len(q))
		for k := range q {
			cfg.Options[k] = q.Get(k)
		}
	}

	cfg.Name = defaultName(cfg)
	return cfg, nil
}

func filePathOf(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	// sqlite:///abs/path keeps the absolute path; sqlite://rel keeps host
	// plus path for relative forms.
	if u.Host != "" {
		return u.Host + u.Path
	}
	return u.Path
}

func defaultName(cfg config.ConnectionConfig) string {
	name := cfg.Host
	if cfg.Database != "" {
		name += "/" + cfg.Database
	}
	return name
}
