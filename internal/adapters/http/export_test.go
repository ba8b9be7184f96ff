package http

var Offer = offer
