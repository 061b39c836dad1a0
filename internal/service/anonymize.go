package service

import "github.com/trendit/collector-go/internal/domain/model"

// AnonymizePost returns the post with author-identifying fields replaced by
// the redaction marker when anonymize is set. Score and content fields are
// never touched.
func AnonymizePost(post model.Post, anonymize bool) model.Post {
	if !anonymize {
		return post
	}
	marker := model.AnonymizedAuthor
	post.Author = &marker
	post.AuthorID = nil
	return post
}

// AnonymizeComment is the comment counterpart of AnonymizePost.
func AnonymizeComment(comment model.Comment, anonymize bool) model.Comment {
	if !anonymize {
		return comment
	}
	marker := model.AnonymizedAuthor
	comment.Author = &marker
	comment.AuthorID = nil
	return comment
}
