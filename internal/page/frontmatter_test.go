package page

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitNoFrontmatter(t *testing.T) {
	content := []byte("# Hello\n\nBody text.\n")
	fm, body, had, err := Split(content)
	require.NoError(t, err)
	assert.False(t, had)
	assert.Nil(t, fm)
	assert.Equal(t, content, body)
}

func TestSplitWithFrontmatter(t *testing.T) {
	content := []byte("---\ntitle: Hello\n---\n# Heading\n")
	fm, body, had, err := Split(content)
	require.NoError(t, err)
	assert.True(t, had)
	assert.Equal(t, "title: Hello\n", string(fm))
	assert.Equal(t, "# Heading\n", string(body))
}

func TestSplitEmptyFrontmatter(t *testing.T) {
	content := []byte("---\n---\nbody\n")
	fm, body, had, err := Split(content)
	require.NoError(t, err)
	assert.True(t, had)
	assert.Empty(t, fm)
	assert.Equal(t, "body\n", string(body))
}

func TestSplitUnclosedFrontmatter(t *testing.T) {
	_, _, _, err := Split([]byte("---\ntitle: Hello\nno close"))
	assert.ErrorIs(t, err, ErrMissingClosingDelimiter)
}

func TestSplitCRLF(t *testing.T) {
	content := []byte("---\r\ntitle: Hello\r\n---\r\nbody\r\n")
	fm, body, had, err := Split(content)
	require.NoError(t, err)
	assert.True(t, had)
	assert.Equal(t, "title: Hello\r\n", string(fm))
	assert.Equal(t, "body\r\n", string(body))
}

func TestParseTypedFields(t *testing.T) {
	content := []byte(`---
title: A Post
description: short summary
date: 2026-03-01
draft: true
template: article.html
tags: [a, b]
---
body`)

	meta, body, err := Parse(content)
	require.NoError(t, err)
	assert.Equal(t, "A Post", meta.Title)
	assert.Equal(t, "short summary", meta.Description)
	assert.True(t, meta.Draft)
	assert.Equal(t, "article.html", meta.Template)
	assert.Equal(t, 2026, meta.Date.Year())
	assert.Equal(t, time.March, meta.Date.Month())
	assert.Contains(t, meta.Fields, "tags")
	assert.Equal(t, "body", string(body))
}

func TestParseDefaultsWithoutFrontmatter(t *testing.T) {
	meta, body, err := Parse([]byte("just markdown"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplate, meta.Template)
	assert.True(t, meta.Date.IsZero())
	assert.False(t, meta.Draft)
	assert.Equal(t, "just markdown", string(body))
}
