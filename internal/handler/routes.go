package handler

// APIV1Prefix is the base path of every API route. Handlers and tests share it.
const APIV1Prefix = "/api/v1"
