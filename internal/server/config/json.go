package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. Durations
// accept "240h" style strings or integer nanoseconds. Pointer fields
// distinguish "absent" from "false"/0.
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC      string         `json:"endpoint_addr_grpc"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	PasswordCost          int            `json:"password_cost"`
	SecureCookies         *bool          `json:"secure_cookies"`
	RedisAddr             string         `json:"redis_addr"`
	RedisPassword         string         `json:"redis_password"`
	CORSAllowedOrigins    []string       `json:"cors_allowed_origins"`
	DistinctLoginErrors   *bool          `json:"distinct_login_errors"`
	ConnectTimeout        timex.Duration `json:"connect_timeout"`
}

// parseJson overlays Config with the JSON file named by -c / -config.
// Only keys present in the file are applied. Read or decode failures panic;
// the server cannot start on a config it failed to read.
func parseJson(cfg *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.EndpointAddrHTTP, jc.EndpointAddrHTTP)
	setString(&cfg.EndpointAddrGRPC, jc.EndpointAddrGRPC)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.SecretKey, jc.SecretKey)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.RedisPassword, jc.RedisPassword)

	if jc.TokenValidityDuration.Duration > 0 {
		cfg.TokenValidityDuration = jc.TokenValidityDuration.Duration
	}
	if jc.ConnectTimeout.Duration > 0 {
		cfg.ConnectTimeout = jc.ConnectTimeout.Duration
	}
	if jc.PasswordCost > 0 {
		cfg.PasswordCost = jc.PasswordCost
	}
	if jc.SecureCookies != nil {
		cfg.SecureCookies = *jc.SecureCookies
	}
	if jc.DistinctLoginErrors != nil {
		cfg.DistinctLoginErrors = *jc.DistinctLoginErrors
	}
	if len(jc.CORSAllowedOrigins) > 0 {
		cfg.CORSAllowedOrigins = jc.CORSAllowedOrigins
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
