// Package message synthesizes conventional commit messages for automatic
// commits.
//
// The message is built from a list of changed paths and a unified diff:
//
//	feat(api): update 3 files
//
//	- handler.ts
//	- routes.ts
//	- server.ts
//
//	Modified components:
//	- createServer
//
// The type comes from the file names, the scope from the deepest directory
// shared by every file, and the summary from the file count. The header is
// kept within MaxHeaderLength characters whatever the input.
//
// Declarations in the body come from DeclarationMatcher implementations run
// over added diff lines. KeywordMatcher is the default. GoMatcher can be
// enabled through configuration, and callers may supply their own.
//
// The inference is line-pattern based. It never parses source code.
package message
