package postman

import (
	"testing"

	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const collection = `{
	"info": {"name": "Users API", "schema": "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"},
	"item": [
		{
			"name": "Users",
			"item": [
				{
					"name": "List users",
					"request": {
						"method": "GET",
						"header": [
							{"key": "Accept", "value": "application/json"},
							{"key": "X-Debug", "value": "1", "disabled": true}
						],
						"url": {
							"raw": "{{baseUrl}}/users?page=2&limit=10",
							"query": [
								{"key": "page", "value": "2"},
								{"key": "limit", "value": "10", "disabled": true}
							]
						}
					}
				},
				{
					"name": "Create user",
					"request": {
						"method": "POST",
						"auth": {"type": "bearer", "bearer": [{"key": "token", "value": "{{token}}"}]},
						"body": {"mode": "raw", "raw": "{\"id\": \"{{$guid}}\"}"},
						"url": "{{baseUrl}}/users"
					}
				}
			]
		},
		{
			"name": "Login",
			"request": {
				"method": "post",
				"body": {
					"mode": "urlencoded",
					"urlencoded": [
						{"key": "user", "value": "ada"},
						{"key": "skip", "value": "x", "disabled": true},
						{"key": "pass", "value": "secret"}
					]
				},
				"url": {"raw": "https://auth.example.com/login?next=%2Fhome"}
			}
		},
		{"name": "Empty folder-like item"}
	]
}`

func TestConvert(t *testing.T) {
	got, err := Convert([]byte(collection))
	require.NoError(t, err)
	require.Len(t, got, 3)

	list := got[0]
	assert.Equal(t, "Users - List users", list.Name)
	assert.Equal(t, draft.MethodGet, list.Draft.Method)
	assert.Equal(t, "{{baseUrl}}/users", list.Draft.URL)
	assert.Equal(t, draft.Entries{
		{Key: "page", Value: "2", Enabled: true},
		{Key: "limit", Value: "10", Enabled: false},
	}, list.Draft.QueryParams)
	assert.Equal(t, draft.Entries{
		{Key: "Accept", Value: "application/json", Enabled: true},
		{Key: "X-Debug", Value: "1", Enabled: false},
	}, list.Draft.Headers)

	create := got[1]
	assert.Equal(t, "Users - Create user", create.Name)
	assert.Equal(t, "{{baseUrl}}/users", create.Draft.URL)
	assert.Equal(t, `{"id": "{{$uuid()}}"}`, create.Draft.Body)
	assert.Equal(t, draft.Entries{
		{Key: "Authorization", Value: "Bearer {{token}}", Enabled: true},
	}, create.Draft.Headers)

	login := got[2]
	assert.Equal(t, "Login", login.Name)
	assert.Equal(t, draft.MethodPost, login.Draft.Method)
	assert.Equal(t, "https://auth.example.com/login", login.Draft.URL)
	assert.Equal(t, draft.Entries{{Key: "next", Value: "/home", Enabled: true}}, login.Draft.QueryParams)
	assert.Equal(t, "user=ada&pass=secret", login.Draft.Body)
	assert.Equal(t, "application/x-www-form-urlencoded", login.Draft.Headers[0].Value)
}

func TestConvert_BasicAuth(t *testing.T) {
	got, err := Convert([]byte(`{"item": [{"name": "a", "request": {
		"method": "GET",
		"url": "https://example.com",
		"auth": {"type": "basic", "basic": [
			{"key": "username", "value": "admin"},
			{"key": "password", "value": "secret123"}
		]}
	}}]}`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Basic YWRtaW46c2VjcmV0MTIz", got[0].Draft.Headers[0].Value)
}

func TestConvert_APIKeyHeader(t *testing.T) {
	got, err := Convert([]byte(`{"item": [{"name": "a", "request": {
		"url": "https://example.com",
		"auth": {"type": "apikey", "apikey": [
			{"key": "key", "value": "X-Api-Key"},
			{"key": "value", "value": "{{apiKey}}"}
		]}
	}}]}`))
	require.NoError(t, err)
	assert.Equal(t, draft.MethodGet, got[0].Draft.Method)
	assert.Equal(t, draft.Entries{{Key: "X-Api-Key", Value: "{{apiKey}}", Enabled: true}}, got[0].Draft.Headers)
}

func TestConvert_Errors(t *testing.T) {
	_, err := Convert([]byte("{"))
	assert.Error(t, err)

	_, err = Convert([]byte(`{"item": [{"name": "bad", "request": {"method": "TRACE", "url": "x"}}]}`))
	assert.ErrorContains(t, err, `request "bad"`)
}

func TestConvertVariable(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"{{$guid}}", "{{$uuid()}}"},
		{"{{$randomUUID}}", "{{$uuid()}}"},
		{"{{$timestamp}}", "{{$timestamp()}}"},
		{"{{$randomInt}}", "{{$random(0, 1000)}}"},
		{"{{baseUrl}}/x", "{{baseUrl}}/x"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, convertVariable(tt.in), tt.in)
	}
}
